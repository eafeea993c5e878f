// Package telemetry provides application-level observability for the
// Descubre Boyacá backend.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http://<host>:<DBY_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint returns data in the Prometheus text
// exposition format and is intended to be scraped by a Prometheus server every
// 15–60 seconds. It is NOT served by the Gin router and is therefore absent
// from the OpenAPI/Swagger spec.
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /api/v1/restaurants/:id)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments such as restaurant ids.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Archive ledger metrics, recorded by the archive service.
//
// ArchivedEntities counts entities snapshotted into the ledger on soft delete;
// RestoredEntities counts successful restores; both are labelled by source
// table. An imbalance growing over time is normal (hard deletes and never
// restored records), but a restore rate near the archive rate suggests
// accidental deletions worth investigating.
//
// Example PromQL queries:
//   - Deletions per table:  sum by (table) (rate(archived_entities_total[1h]))
//   - Restore ratio:        sum(rate(restored_entities_total[24h])) / sum(rate(archived_entities_total[24h]))
var (
	ArchivedEntities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archived_entities_total",
			Help: "Total number of entities archived on soft delete, by source table.",
		},
		[]string{"table"},
	)

	RestoredEntities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restored_entities_total",
			Help: "Total number of entities restored from the archive, by source table.",
		},
		[]string{"table"},
	)
)

// Auth metrics.
//
// LoginAttemptsTotal is labelled by method ("password" or "google") and
// outcome ("success", "failure"). A spike in password failures is the usual
// credential-stuffing signal.
//
// Example PromQL queries:
//   - Failure rate:  sum(rate(login_attempts_total{outcome="failure"}[5m]))
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// RateLimitedRequestsTotal counts requests rejected by the rate limiter,
// labelled by route template.
var RateLimitedRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Total number of requests rejected with 429, by route template.",
	},
	[]string{"path"},
)

// DBOpenConnections is a Gauge that tracks the number of open connections
// currently held by the sql.DB connection pool. It is sampled every
// 30 seconds by StartDBStatsCollector rather than per-request to avoid the
// overhead of sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds and updates the
// DBOpenConnections gauge. The goroutine exits cleanly when the database
// becomes unreachable (db.Ping fails), which happens automatically when the
// application shuts down and defers db.Close().
//
// Call this once, immediately after db.Connect() succeeds in main.go:
//
//	telemetry.StartDBStatsCollector(database)
func StartDBStatsCollector(db *sql.DB) {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	}()
}
