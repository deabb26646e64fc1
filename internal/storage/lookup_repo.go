package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/radiusdt/dsp-console/internal/models"
)

// InMemoryLookupRepo serves a fixed copy of the lookup tables. The
// Postgres tables are seeded by migration with the same values.
type InMemoryLookupRepo struct {
	values      map[models.LookupKind][]models.LookupValue
	locations   []models.Location
	targetTypes []models.TargetType
}

// NewInMemoryLookupRepo returns a repo seeded with DefaultLookups.
func NewInMemoryLookupRepo() *InMemoryLookupRepo {
	values := make(map[models.LookupKind][]models.LookupValue, len(DefaultLookups))
	for kind, labels := range DefaultLookups {
		rows := make([]models.LookupValue, len(labels))
		for i, l := range labels {
			rows[i] = models.LookupValue{ID: int64(i + 1), Label: l[0], Code: l[1]}
		}
		values[kind] = rows
	}
	return &InMemoryLookupRepo{
		values: values,
		locations: []models.Location{
			{ID: 1, Country: "India", State: "Maharashtra", City: "Mumbai", Tier: "1"},
			{ID: 2, Country: "India", State: "Delhi", City: "New Delhi", Tier: "1"},
			{ID: 3, Country: "India", State: "Karnataka", City: "Bengaluru", Tier: "1"},
		},
		targetTypes: []models.TargetType{
			{ID: 1, Category: "Automotive", Subcategory: "Cars"},
			{ID: 2, Category: "Finance", Subcategory: "Banking"},
			{ID: 3, Category: "Travel", Subcategory: "Hotels"},
		},
	}
}

// DefaultLookups maps each kind to {label, code} pairs.
var DefaultLookups = map[models.LookupKind][][2]string{
	models.LookupAge:              {{"18-24", ""}, {"25-34", ""}, {"35-44", ""}, {"45-54", ""}, {"55+", ""}},
	models.LookupBrandSafety:      {{"Low", ""}, {"Medium", ""}, {"High", ""}},
	models.LookupViewability:      {{"50%", ""}, {"70%", ""}, {"90%", ""}},
	models.LookupBuyType:          {{"CPM", ""}, {"CVC", ""}, {"CPV", ""}, {"CPC", ""}, {"OTHER", ""}},
	models.LookupDevicePrice:      {{"Below 10k", ""}, {"10k-25k", ""}, {"Above 25k", ""}},
	models.LookupDevice:           {{"Mobile", ""}, {"Desktop", ""}, {"Tablet", ""}, {"CTV", ""}},
	models.LookupDistinctInterest: {{"Sports", ""}, {"Music", ""}, {"Technology", ""}},
	models.LookupCarrier:          {{"Airtel", ""}, {"Jio", ""}, {"Vi", ""}},
	models.LookupEnvironment:      {{"App", ""}, {"Web", ""}},
	models.LookupExchange:         {{"Google AdX", ""}, {"PubMatic", ""}, {"Magnite", ""}},
	models.LookupLanguage:         {{"English", "en"}, {"Hindi", "hi"}, {"Tamil", "ta"}},
}

func (r *InMemoryLookupRepo) Values(_ context.Context, kind models.LookupKind) ([]models.LookupValue, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("lookup %q: %w", kind, models.ErrNotFound)
	}
	return r.values[kind], nil
}

func (r *InMemoryLookupRepo) Locations(context.Context) ([]models.Location, error) {
	return r.locations, nil
}

func (r *InMemoryLookupRepo) TargetTypes(_ context.Context, query string) ([]models.TargetType, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return r.targetTypes, nil
	}
	var res []models.TargetType
	for _, t := range r.targetTypes {
		if strings.Contains(strings.ToLower(t.Category), query) || strings.Contains(strings.ToLower(t.Subcategory), query) {
			res = append(res, t)
		}
	}
	return res, nil
}
