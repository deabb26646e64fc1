package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordUpload(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordUpload("accepted", 3, 20*time.Millisecond)
	m.RecordUpload("invalid", 0, time.Millisecond)
	m.RecordUpload("accepted", 1, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Uploads.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues("invalid")))
}

func TestRecordBlobOpLabelsErrors(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordBlobOp("put", nil, time.Millisecond)
	m.RecordBlobOp("put", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.BlobLatency))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordUpload("accepted", 1, time.Second)
		m.RecordCompensation("campaign_create")
		m.RecordDashboard("headline", true, time.Millisecond)
		m.RecordRateLimitHit("global")
		m.UpdateDBStats(1, 2, 3)
	})
}
