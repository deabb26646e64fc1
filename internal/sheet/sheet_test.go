package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/radiusdt/dsp-console/internal/config"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func sampleCampaign() *models.Campaign {
	owner := int64(3)
	return &models.Campaign{
		ID:          7,
		UserID:      &owner,
		Name:        "Launch",
		Objective:   models.ObjectiveVideo,
		Status:      models.StatusLive,
		BuyType:     models.BuyTypeCPM,
		UnitRate:    decimal.NewNullDecimal(decimal.RequireFromString("1.50")),
		Impressions: 1000,
		Clicks:      50,
		Views:       800,
		CTR:         decimal.RequireFromString("5.00"),
		VTR:         decimal.RequireFromString("80.00"),
		Spend:       decimal.RequireFromString("120.00"),
		Targeting:   models.Targeting{Age: []string{"18-24"}, LocationIDs: []int64{1, 2}},
		CreativeIDs: []int64{4},
		LandingPage: "https://example.com",
		CreatedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExportHeaders(t *testing.T) {
	headers := Headers(sampleCampaign().Projection())

	assert.Equal(t, []string{"date", "ID", "NAME", "IMPRESSIONS", "CLICKS", "CTR", "VIEWS", "VTR", "SPEND"}, headers)
	for _, h := range headers[1:] {
		assert.False(t, Denied(h), "denylisted column %s exported", h)
	}
}

func TestExportWorkbook(t *testing.T) {
	buf, err := Export(sampleCampaign().Projection())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "date", rows[0][0])
	assert.Equal(t, "NAME", rows[0][2])
	assert.Equal(t, "7", rows[1][1])
	assert.Equal(t, "Launch", rows[1][2])
	assert.Equal(t, "1000", rows[1][3])
	for _, h := range rows[0] {
		assert.NotContains(t, []string{"LANDING_PAGE", "LOCATION", "CREATIVE", "STATUS", "UNIT_RATE"}, h)
	}
}

func TestParseScenario(t *testing.T) {
	buf := workbook(t,
		[]any{"id", "impressions", "clicks", "views", "spend"},
		[]any{7, 1000, 50, 800, 120.004},
		[]any{8, 5, 5, 5, 5},
	)

	res, err := Parse(buf, "report.xlsx", 7)
	require.NoError(t, err)
	require.Equal(t, 1, res.Processed)

	row := res.Rows[0]
	assert.Equal(t, int64(7), row.CampaignID)
	assert.True(t, row.Impressions.Equal(decimal.NewFromInt(1000)))
	assert.True(t, row.Clicks.Equal(decimal.NewFromInt(50)))
	assert.True(t, row.Views.Equal(decimal.NewFromInt(800)))
	assert.True(t, row.Spend.Equal(decimal.RequireFromString("120.004")))
}

func TestParseMissingIDColumn(t *testing.T) {
	buf := workbook(t,
		[]any{"campaign", "impressions"},
		[]any{7, 10},
	)

	_, err := Parse(buf, "report.xlsx", 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidFormat))
}

func TestParseNoMatchingRows(t *testing.T) {
	buf := workbook(t,
		[]any{"id", "impressions"},
		[]any{8, 10},
		[]any{9, 10},
	)

	_, err := Parse(buf, "report.xlsx", 7)
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 0, fe.Processed)
	assert.ErrorIs(t, err, models.ErrInvalidFormat)
}

func TestParseResolvesSynonyms(t *testing.T) {
	buf := workbook(t,
		[]any{" ID ", "Impression", "Click", "Video Views", "Payments"},
		[]any{7, 10, 2, 4, "12.5"},
	)

	res, err := Parse(buf, "perf.xlsx", 7)
	require.NoError(t, err)

	assert.Equal(t, "Impression", res.Resolved[MetricImpressions])
	assert.Equal(t, "Payments", res.Resolved[MetricSpend])
	assert.True(t, res.Rows[0].Views.Equal(decimal.NewFromInt(4)))
	assert.True(t, res.Rows[0].Spend.Equal(decimal.RequireFromString("12.5")))
}

func TestParsePrefersEarlierCandidate(t *testing.T) {
	buf := workbook(t,
		[]any{"id", "cost", "spend"},
		[]any{7, 1, 2},
	)

	res, err := Parse(buf, "perf.xlsx", 7)
	require.NoError(t, err)
	assert.Equal(t, "spend", res.Resolved[MetricSpend])
	assert.True(t, res.Rows[0].Spend.Equal(decimal.NewFromInt(2)))
}

func TestParseMissingMetricIsZero(t *testing.T) {
	buf := workbook(t,
		[]any{"id", "impressions", "clicks"},
		[]any{7, 100, "n/a"},
	)

	res, err := Parse(buf, "perf.xlsx", 7)
	require.NoError(t, err)

	_, resolved := res.Resolved[MetricViews]
	assert.False(t, resolved)
	assert.True(t, res.Rows[0].Views.IsZero())
	assert.True(t, res.Rows[0].Clicks.IsZero())
	assert.True(t, res.Rows[0].Spend.IsZero())
}

func TestParseCSV(t *testing.T) {
	csv := "\ufeffDate,Id,Impressions,Clicks,Views,Spend\n" +
		"2024-03-01,7.0,\"1,000\",50,800,$120.004\n" +
		"2024-03-02,7,500,10,100,10\n" +
		"2024-03-02,8,1,1,1,1\n"

	res, err := Parse(strings.NewReader(csv), "upload.CSV", 7)
	require.NoError(t, err)
	require.Equal(t, 2, res.Processed)
	assert.Equal(t, "2024-03-01", res.Rows[0].Date)
	assert.True(t, res.Rows[0].Impressions.Equal(decimal.NewFromInt(1000)))
	assert.True(t, res.Rows[0].Spend.Equal(decimal.RequireFromString("120.004")))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not a workbook"), "report.xlsx", 7)
	assert.ErrorIs(t, err, models.ErrInvalidFormat)
}

func TestColumnsFromConfig(t *testing.T) {
	cols := ColumnsFromConfig(config.SheetConfig{Spend: []string{"amount"}})

	require.Len(t, cols, len(DefaultColumns))
	assert.Equal(t, []string{"amount"}, cols[3].Candidates)
	assert.Equal(t, DefaultColumns[0].Candidates, cols[0].Candidates)

	buf := workbook(t,
		[]any{"id", "spend", "amount"},
		[]any{7, 1, 9},
	)
	res, err := NewParser(cols).Parse(buf, "x.xlsx", 7)
	require.NoError(t, err)
	assert.True(t, res.Rows[0].Spend.Equal(decimal.NewFromInt(9)))
}
