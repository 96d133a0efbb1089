// Package metrics exposes Prometheus counters for harvesting cycles.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"NewsHarvester/internal/domain"
)

const namespace = "newsharvester"

// Metrics holds all Prometheus metrics for the harvester.
type Metrics struct {
	CyclesTotal          *prometheus.CounterVec
	CycleDurationSeconds prometheus.Histogram
	ArticlesInserted     prometheus.Counter
	SiteArticles         *prometheus.CounterVec
	SiteSkipped          *prometheus.CounterVec
	SiteFailures         *prometheus.CounterVec
}

// New creates and registers the metrics on reg (default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Harvesting cycles by outcome",
			},
			[]string{"status"},
		),
		CycleDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Wall time of one harvesting cycle",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		ArticlesInserted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "articles_inserted_total",
				Help:      "Articles committed to storage",
			},
		),
		SiteArticles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "site_articles_total",
				Help:      "Articles extracted per site",
			},
			[]string{"site"},
		),
		SiteSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "site_skipped_total",
				Help:      "Article links skipped per site",
			},
			[]string{"site"},
		),
		SiteFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "site_failures_total",
				Help:      "Site scrapes that failed outright",
			},
			[]string{"site"},
		),
	}
}

// ObserveCycle records one finished cycle. A nil receiver is a no-op.
func (m *Metrics) ObserveCycle(report domain.CycleReport, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
	if !report.StartedAt.IsZero() && !report.FinishedAt.IsZero() {
		m.CycleDurationSeconds.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
	m.ArticlesInserted.Add(float64(report.Inserted))

	for _, site := range report.Sites {
		m.SiteArticles.WithLabelValues(site.Site).Add(float64(site.Articles))
		m.SiteSkipped.WithLabelValues(site.Site).Add(float64(site.Skipped))
		if site.Err != nil {
			m.SiteFailures.WithLabelValues(site.Site).Inc()
		}
	}
}
