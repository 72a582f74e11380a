// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Fetch job metrics
	FetchRuns      *prometheus.CounterVec
	TariffsFetched prometheus.Counter
	TariffsStored  prometheus.Counter

	// Publish job metrics
	PublishRuns         *prometheus.CounterVec
	SheetTargetFailures prometheus.Counter
	RowsPublished       prometheus.Counter

	// Health metrics
	LastSuccessfulFetch   prometheus.Gauge
	LastSuccessfulPublish prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wb_tariff_sync"
	}

	return &Metrics{
		FetchRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "runs_total",
			Help:      "Total number of fetch-and-store job runs by status",
		}, []string{"status"}),
		TariffsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "tariffs_fetched_total",
			Help:      "Total number of tariff records received from the API",
		}),
		TariffsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "tariffs_stored_total",
			Help:      "Total number of tariff records upserted to the database",
		}),

		PublishRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "runs_total",
			Help:      "Total number of project-and-publish job runs by status",
		}, []string{"status"}),
		SheetTargetFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "target_failures_total",
			Help:      "Total number of per-target spreadsheet publish failures",
		}),
		RowsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "rows_published_total",
			Help:      "Total number of sheet rows written across all targets",
		}),

		LastSuccessfulFetch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of last successful fetch-and-store run",
		}),
		LastSuccessfulPublish: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_publish_timestamp",
			Help:      "Unix timestamp of last successful publish run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
