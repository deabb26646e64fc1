package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Objective is the creative format a campaign buys.
type Objective string

const (
	ObjectiveBanner Objective = "Banner"
	ObjectiveVideo  Objective = "Video"
)

// Status is the campaign lifecycle label shown on the dashboard.
type Status string

const (
	StatusCreated     Status = "Created"
	StatusLearning    Status = "Learning"
	StatusLive        Status = "Live"
	StatusPauseOption Status = "Pause Option"
	StatusCompleted   Status = "Completed"
	StatusOther       Status = "Other"
)

// BuyType is the pricing model unit_rate is expressed in.
type BuyType string

const (
	BuyTypeCPM   BuyType = "CPM"
	BuyTypeCVC   BuyType = "CVC"
	BuyTypeCPV   BuyType = "CPV"
	BuyTypeCPC   BuyType = "CPC"
	BuyTypeOther BuyType = "OTHER"
)

func (o Objective) Valid() bool {
	return o == "" || o == ObjectiveBanner || o == ObjectiveVideo
}

func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusLearning, StatusLive, StatusPauseOption, StatusCompleted, StatusOther:
		return true
	}
	return false
}

func (b BuyType) Valid() bool {
	switch b {
	case "", BuyTypeCPM, BuyTypeCVC, BuyTypeCPV, BuyTypeCPC, BuyTypeOther:
		return true
	}
	return false
}

// Targeting holds the campaign's attached dimension sets. The reporting
// pipeline treats it as opaque.
type Targeting struct {
	Age           []string `json:"age,omitempty"`
	Device        []string `json:"device,omitempty"`
	Environment   []string `json:"environment,omitempty"`
	Exchange      []string `json:"exchange,omitempty"`
	Language      []string `json:"language,omitempty"`
	Carrier       []string `json:"carrier,omitempty"`
	DevicePrice   []string `json:"device_price,omitempty"`
	LocationIDs   []int64  `json:"location_ids,omitempty"`
	TargetTypeIDs []int64  `json:"target_type_ids,omitempty"`
}

// Campaign is the advertising campaign record. Impressions, Clicks, Views,
// CTR, VTR and Spend are derived counters written only by report uploads.
type Campaign struct {
	ID          int64               `json:"id"`
	UserID      *int64              `json:"user,omitempty"`
	Owner       string              `json:"owner,omitempty"`
	Name        string              `json:"name"`
	Objective   Objective           `json:"objective,omitempty"`
	Status      Status              `json:"status"`
	BuyType     BuyType             `json:"buy_type,omitempty"`
	UnitRate    decimal.NullDecimal `json:"unit_rate"`
	TotalBudget decimal.NullDecimal `json:"total_budget"`
	DayPart     string              `json:"day_part,omitempty"`
	LandingPage string              `json:"landing_page,omitempty"`
	ReportsURL  string              `json:"reports_url,omitempty"`
	StartTime   string              `json:"start_time,omitempty"`
	EndTime     string              `json:"end_time,omitempty"`
	Viewability int                 `json:"viewability"`
	BrandSafety int                 `json:"brand_safety"`
	Targeting   Targeting           `json:"targeting"`
	CreativeIDs []int64             `json:"creative,omitempty"`
	FileURL     string              `json:"file_url,omitempty"`

	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Views       int64           `json:"views"`
	CTR         decimal.Decimal `json:"ctr"`
	VTR         decimal.Decimal `json:"vtr"`
	Spend       decimal.Decimal `json:"spend"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID owns the campaign.
func (c *Campaign) OwnedBy(userID int64) bool {
	return c.UserID != nil && *c.UserID == userID
}

// Validate checks descriptive fields. Derived counters are not checked.
func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "name is required")
	}
	if !c.Objective.Valid() {
		return NewValidationError("objective", "unknown objective "+string(c.Objective))
	}
	if !c.Status.Valid() {
		return NewValidationError("status", "unknown status "+string(c.Status))
	}
	if !c.BuyType.Valid() {
		return NewValidationError("buy_type", "unknown buy type "+string(c.BuyType))
	}
	if c.UnitRate.Valid && c.UnitRate.Decimal.IsNegative() {
		return NewValidationError("unit_rate", "must be non-negative")
	}
	if c.TotalBudget.Valid && c.TotalBudget.Decimal.IsNegative() {
		return NewValidationError("total_budget", "must be non-negative")
	}
	if c.Viewability < 0 || c.BrandSafety < 0 {
		return NewValidationError("viewability", "must be non-negative")
	}
	return nil
}

// ApplyTotals replaces the derived counters with freshly aggregated totals.
func (c *Campaign) ApplyTotals(t Totals) {
	c.Impressions = t.Impressions
	c.Clicks = t.Clicks
	c.Views = t.Views
	c.Spend = t.Spend
	c.CTR = t.CTR
	c.VTR = t.VTR
}

// Field is one key/value of a flattened campaign.
type Field struct {
	Key   string
	Value any
}

// Projection flattens the campaign into the ordered key/value list used by
// report exports. Association fields carry summaries (id lists, urls).
func (c *Campaign) Projection() []Field {
	var user any
	if c.UserID != nil {
		user = *c.UserID
	}
	var files []string
	if c.FileURL != "" {
		files = []string{c.FileURL}
	}
	return []Field{
		{"id", c.ID},
		{"user", user},
		{"objective", string(c.Objective)},
		{"name", c.Name},
		{"age", c.Targeting.Age},
		{"day_part", c.DayPart},
		{"device", c.Targeting.Device},
		{"environment", c.Targeting.Environment},
		{"exchange", c.Targeting.Exchange},
		{"created_at", c.CreatedAt},
		{"updated_at", c.UpdatedAt},
		{"language", c.Targeting.Language},
		{"carrier", c.Targeting.Carrier},
		{"device_price", c.Targeting.DevicePrice},
		{"total_budget", c.TotalBudget},
		{"landing_page", c.LandingPage},
		{"reports_url", c.ReportsURL},
		{"start_time", c.StartTime},
		{"end_time", c.EndTime},
		{"status", string(c.Status)},
		{"viewability", c.Viewability},
		{"brand_safety", c.BrandSafety},
		{"impressions", c.Impressions},
		{"clicks", c.Clicks},
		{"ctr", c.CTR},
		{"views", c.Views},
		{"vtr", c.VTR},
		{"spend", c.Spend},
		{"buy_type", string(c.BuyType)},
		{"unit_rate", c.UnitRate},
		{"location", c.Targeting.LocationIDs},
		{"target_type", c.Targeting.TargetTypeIDs},
		{"creative", c.CreativeIDs},
		{"campaign_files", files},
	}
}

// CampaignInput is the user-editable subset of a campaign. Nil fields are
// left unchanged on update.
type CampaignInput struct {
	Name        *string              `json:"name"`
	Objective   *Objective           `json:"objective"`
	Status      *Status              `json:"status"`
	BuyType     *BuyType             `json:"buy_type"`
	UnitRate    *decimal.NullDecimal `json:"unit_rate"`
	TotalBudget *decimal.NullDecimal `json:"total_budget"`
	DayPart     *string              `json:"day_part"`
	LandingPage *string              `json:"landing_page"`
	ReportsURL  *string              `json:"reports_url"`
	StartTime   *string              `json:"start_time"`
	EndTime     *string              `json:"end_time"`
	Viewability *int                 `json:"viewability"`
	BrandSafety *int                 `json:"brand_safety"`
	Targeting   *Targeting           `json:"targeting"`
	CreativeIDs []int64              `json:"creative"`
}

// Apply copies the set fields onto c.
func (in *CampaignInput) Apply(c *Campaign) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Objective != nil {
		c.Objective = *in.Objective
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.BuyType != nil {
		c.BuyType = *in.BuyType
	}
	if in.UnitRate != nil {
		c.UnitRate = *in.UnitRate
	}
	if in.TotalBudget != nil {
		c.TotalBudget = *in.TotalBudget
	}
	if in.DayPart != nil {
		c.DayPart = *in.DayPart
	}
	if in.LandingPage != nil {
		c.LandingPage = *in.LandingPage
	}
	if in.ReportsURL != nil {
		c.ReportsURL = *in.ReportsURL
	}
	if in.StartTime != nil {
		c.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		c.EndTime = *in.EndTime
	}
	if in.Viewability != nil {
		c.Viewability = *in.Viewability
	}
	if in.BrandSafety != nil {
		c.BrandSafety = *in.BrandSafety
	}
	if in.Targeting != nil {
		c.Targeting = *in.Targeting
	}
	if in.CreativeIDs != nil {
		c.CreativeIDs = in.CreativeIDs
	}
}
