package models

// LookupKind names one of the read-only targeting dimension tables.
type LookupKind string

const (
	LookupAge              LookupKind = "age"
	LookupBrandSafety      LookupKind = "brand_safety"
	LookupViewability      LookupKind = "viewability"
	LookupBuyType          LookupKind = "buy_type"
	LookupDevicePrice      LookupKind = "device_price"
	LookupDevice           LookupKind = "device"
	LookupDistinctInterest LookupKind = "distinct_interest"
	LookupCarrier          LookupKind = "carrier"
	LookupEnvironment      LookupKind = "environment"
	LookupExchange         LookupKind = "exchange"
	LookupLanguage         LookupKind = "language"
)

// LookupKinds lists every kind served by the lookup endpoint.
var LookupKinds = []LookupKind{
	LookupAge, LookupBrandSafety, LookupViewability, LookupBuyType,
	LookupDevicePrice, LookupDevice, LookupDistinctInterest, LookupCarrier,
	LookupEnvironment, LookupExchange, LookupLanguage,
}

// Valid reports whether k is a known lookup table.
func (k LookupKind) Valid() bool {
	for _, known := range LookupKinds {
		if k == known {
			return true
		}
	}
	return false
}

// LookupValue is one row of a lookup table. Code carries the ISO code for
// languages and is empty elsewhere.
type LookupValue struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Code  string `json:"code,omitempty"`
}

// Location is a geo targeting option.
type Location struct {
	ID         int64  `json:"id"`
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
	Tier       string `json:"tier,omitempty"`
	Population int64  `json:"population,omitempty"`
}

// TargetType is an interest category option.
type TargetType struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}
