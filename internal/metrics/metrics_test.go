package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRefreshMetrics(t *testing.T) {
	m := NewRefreshMetrics(prometheus.NewRegistry())

	m.RecordRefresh("success", time.Second)
	m.RecordRefresh("success", time.Second)
	m.RecordRefresh("external_source_unavailable", time.Millisecond)
	m.RecordCountries(250)
	m.RecordSummaryFailure()
	m.RecordDelete(true)
	m.RecordDelete(false)
	m.ObserveFetch("countries", "success", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshesTotal.WithLabelValues("external_source_unavailable")))
	assert.Equal(t, 250.0, testutil.ToFloat64(m.CountriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SummaryFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeletesTotal.WithLabelValues("false")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FeedFetchSeconds))
}

func TestNewRefreshMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRefreshMetrics(prometheus.NewRegistry())
		NewRefreshMetrics(prometheus.NewRegistry())
	})
}
