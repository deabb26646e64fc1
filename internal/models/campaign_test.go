package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Campaign
		wantErr bool
	}{
		{"valid", Campaign{Name: "Diwali", Status: StatusCreated, Objective: ObjectiveVideo}, false},
		{"missing name", Campaign{Name: "  ", Status: StatusCreated}, true},
		{"bad status", Campaign{Name: "x", Status: "Paused"}, true},
		{"bad objective", Campaign{Name: "x", Status: StatusLive, Objective: "Audio"}, true},
		{"bad buy type", Campaign{Name: "x", Status: StatusLive, BuyType: "CPA"}, true},
		{"negative budget", Campaign{
			Name: "x", Status: StatusLive,
			TotalBudget: decimal.NewNullDecimal(decimal.NewFromInt(-1)),
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCampaignProjectionOrder(t *testing.T) {
	c := Campaign{ID: 7, Name: "Launch"}
	fields := c.Projection()

	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	assert.Equal(t, "id", keys[0])
	assert.Equal(t, "name", keys[3])
	assert.Equal(t, "campaign_files", keys[len(keys)-1])
	assert.Equal(t, int64(7), fields[0].Value)
}

func TestCampaignInputApplyKeepsCounters(t *testing.T) {
	c := Campaign{Name: "old", Status: StatusCreated, Impressions: 10, Clicks: 2}
	name := "new"
	status := StatusLive
	in := CampaignInput{Name: &name, Status: &status}

	in.Apply(&c)

	assert.Equal(t, "new", c.Name)
	assert.Equal(t, StatusLive, c.Status)
	assert.Equal(t, int64(10), c.Impressions)
	assert.Equal(t, int64(2), c.Clicks)
}

func TestRegistrationValidate(t *testing.T) {
	r := Registration{Email: " Ana@Example.com ", Password: "secret123"}
	require.NoError(t, r.Validate())
	assert.Equal(t, "ana@example.com", r.Email)
	assert.Equal(t, "ana@example.com", r.Username)

	short := Registration{Email: "a@b.co", Password: "short"}
	assert.ErrorIs(t, short.Validate(), ErrValidation)
}
