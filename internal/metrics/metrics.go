package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	BatchesProcessed      prometheus.Counter
	TransactionsProcessed prometheus.Counter
	RowsWritten           *prometheus.CounterVec
	WriteDuration         prometheus.Histogram
	LastCommittedVersion  prometheus.Gauge

	FeedReconnects prometheus.Counter
	FeedGaps       prometheus.Counter

	EventsPublished   prometheus.Counter
	PublishDrops      prometheus.Counter
	BrokerConnections prometheus.Gauge
}

// New creates and registers all collectors on the given registerer. Pass
// prometheus.DefaultRegisterer in the binaries and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BatchesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_batches_processed_total",
			Help: "Transaction batches committed",
		}),
		TransactionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_transactions_processed_total",
			Help: "Transactions scanned for protocol events",
		}),
		RowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_rows_written_total",
			Help: "Rows inserted or upserted, by table",
		}, []string{"table"}),
		WriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "indexer_write_duration_seconds",
			Help:    "Storage transaction duration per batch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		LastCommittedVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_last_committed_version",
			Help: "Transaction version of the last committed batch",
		}),

		FeedReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_feed_reconnects_total",
			Help: "Feed reconnection attempts",
		}),
		FeedGaps: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_feed_version_gaps_total",
			Help: "Version gaps detected in the feed",
		}),

		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_events_published_total",
			Help: "Derived events pushed to the fan-out hub",
		}),
		PublishDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "indexer_publish_drops_total",
			Help: "Derived events dropped for slow subscribers",
		}),
		BrokerConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "indexer_broker_connections",
			Help: "Open WebSocket subscriber connections",
		}),
	}
}

// Handler serves the default registry over HTTP.
func Handler() http.Handler {
	return promhttp.Handler()
}
