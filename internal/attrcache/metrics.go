package attrcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridtree_attrcache_hits_total",
			Help: "Total number of attribute cache hits",
		},
	)

	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridtree_attrcache_misses_total",
			Help: "Total number of attribute cache misses",
		},
	)

	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridtree_attrcache_evictions_total",
			Help: "Total number of entries evicted to honour the size bound",
		},
	)

	cacheExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gridtree_attrcache_expirations_total",
			Help: "Total number of entries dropped after expiry",
		},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gridtree_attrcache_entries",
			Help: "Current number of cached attribute values",
		},
	)

	platformReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gridtree_attribute_reads_total",
			Help: "Total number of attribute reads sent to the platform",
		},
		[]string{"result"},
	)
)
