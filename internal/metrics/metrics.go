package metrics

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	DetectionCalls   *prometheus.CounterVec
	SchemaChanges    *prometheus.CounterVec
	RatingsSubmitted prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide collectors, registering them with the
// default registry on first use.
func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern, method and status code",
			}, []string{"route", "method", "status"}),
			HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "pantry",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route pattern and method",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
			DetectionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "detection_requests_total",
				Help:      "Detection requests by outcome (ok, cached, error)",
			}, []string{"outcome"}),
			SchemaChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "schema_changes_total",
				Help:      "DDL statements applied at startup by kind (create_table, add_column)",
			}, []string{"kind"}),
			RatingsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "pantry",
				Name:      "conversation_ratings_total",
				Help:      "Total ratings added to conversations",
			}),
		}
		prometheus.MustRegister(global.HTTPRequests, global.HTTPDuration, global.DetectionCalls,
			global.SchemaChanges, global.RatingsSubmitted)
	})
	return global
}

// RegisterDB exposes connection pool statistics for db. Registering the
// same database name twice is a no-op.
func RegisterDB(db *sql.DB, name string) error {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, name))
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}
