package arraycache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one Service
type Metrics struct {
	windowHits  prometheus.Counter
	bulkReads   prometheus.Counter
	stageDrains prometheus.Counter
	commits     prometheus.Counter
	windowBytes prometheus.Gauge
}

// NewMetrics creates the cache collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		windowHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabula_cache_window_hits_total",
			Help: "Reader lookups served from the cache window",
		}),
		bulkReads: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabula_cache_bulk_reads_total",
			Help: "Window refills read from an array store",
		}),
		stageDrains: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabula_cache_stage_drains_total",
			Help: "Writer stages pushed to an array store",
		}),
		commits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabula_cache_commits_total",
			Help: "Explicit writer flushes that committed a header count",
		}),
		windowBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabula_cache_window_bytes",
			Help: "Bytes of reader windows reserved against the memory budget",
		}),
	}
}
