package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_requests_total",
		Help: "Total number of cached tile read requests",
	})

	TilesCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_cache_hits_total",
		Help: "Total number of tiles served from or already present in the cache",
	})

	TilesCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_cache_misses_total",
		Help: "Total number of tiles missing from the cache",
	})

	TilesUpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_upstream_requests_total",
		Help: "Total number of upstream tile requests by result",
	}, []string{"result"})

	TilesUpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tiles_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	TilesFetchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tiles_fetch_in_flight",
		Help: "Number of fetch-and-write tasks currently running",
	})

	TilesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_written_total",
		Help: "Total number of tiles written to storage",
	})

	TilesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_failed_total",
		Help: "Total number of tiles that failed during a batch by stage",
	}, []string{"stage"})

	DownloadBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "download_batches_total",
		Help: "Total number of download batches by outcome",
	}, []string{"outcome"})

	RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_requests_total",
		Help: "Total number of pass-through relay requests by result",
	}, []string{"result"})
)
