package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RefreshMetrics contains the collectors for the refresh pipeline
type RefreshMetrics struct {
	RefreshesTotal   *prometheus.CounterVec
	RefreshDuration  *prometheus.HistogramVec
	FeedFetchSeconds *prometheus.HistogramVec
	CountriesTotal   prometheus.Gauge
	SummaryFailures  prometheus.Counter
	EventFailures    prometheus.Counter
	DeletesTotal     *prometheus.CounterVec
}

// NewRefreshMetrics creates and registers the collectors on reg
func NewRefreshMetrics(reg prometheus.Registerer) *RefreshMetrics {
	factory := promauto.With(reg)

	return &RefreshMetrics{
		RefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "country_refreshes_total",
				Help: "Number of refresh cycles by outcome",
			},
			[]string{"outcome"},
		),

		RefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "country_refresh_duration_seconds",
				Help:    "Duration of refresh cycles in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"outcome"},
		),

		FeedFetchSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "country_feed_fetch_duration_seconds",
				Help:    "Duration of external feed calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"source", "outcome"},
		),

		CountriesTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "countries_total",
				Help: "Number of stored countries after the last mutation",
			},
		),

		SummaryFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "country_summary_render_failures_total",
				Help: "Number of summary images that failed to render",
			},
		),

		EventFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "country_refresh_event_failures_total",
				Help: "Number of refresh events that failed to publish",
			},
		),

		DeletesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "country_deletes_total",
				Help: "Number of delete requests by result",
			},
			[]string{"found"},
		),
	}
}

// ObserveFetch records a single feed call
func (m *RefreshMetrics) ObserveFetch(source string, outcome string, duration time.Duration) {
	m.FeedFetchSeconds.WithLabelValues(source, outcome).Observe(duration.Seconds())
}

// RecordRefresh records the outcome of a refresh cycle
func (m *RefreshMetrics) RecordRefresh(outcome string, duration time.Duration) {
	m.RefreshesTotal.WithLabelValues(outcome).Inc()
	m.RefreshDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordCountries sets the stored country gauge
func (m *RefreshMetrics) RecordCountries(total int64) {
	m.CountriesTotal.Set(float64(total))
}

// RecordSummaryFailure counts a failed summary render
func (m *RefreshMetrics) RecordSummaryFailure() {
	m.SummaryFailures.Inc()
}

// RecordEventFailure counts a failed event publish
func (m *RefreshMetrics) RecordEventFailure() {
	m.EventFailures.Inc()
}

// RecordDelete counts a delete request
func (m *RefreshMetrics) RecordDelete(found bool) {
	label := "false"
	if found {
		label = "true"
	}
	m.DeletesTotal.WithLabelValues(label).Inc()
}
