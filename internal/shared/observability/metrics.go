package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvels_resolve_total",
		Help: "Reference resolutions by reference kind and outcome.",
	}, []string{"kind", "outcome"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resolvels_query_seconds",
		Help:    "Time spent answering a workspace query.",
		Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"query"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvels_cache_hits_total",
		Help: "Memo cache hits by cache name.",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvels_cache_misses_total",
		Help: "Memo cache misses by cache name, including stale entries.",
	}, []string{"cache"})

	RecursionSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolvels_recursion_skips_total",
		Help: "Re-entrant inference calls short-circuited by the recursion guard.",
	}, []string{"query"})

	ModificationCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resolvels_modification_count",
		Help: "Current value of the workspace modification counter.",
	})

	IndexEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resolvels_index_entries",
		Help: "Files and directories known to the module index.",
	})

	IndexRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolvels_index_refresh_seconds",
		Help:    "Time spent rescanning library roots.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolvels_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "resolvels_parsing_seconds",
		Help:    "Time spent converting a source file into a syntax tree.",
		Buckets: prometheus.DefBuckets,
	}, []string{"profile"})
)
