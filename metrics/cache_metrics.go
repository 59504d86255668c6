package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type promCollector struct {
	Hits     *prometheus.CounterVec
	Misses   *prometheus.CounterVec
	Sets     *prometheus.CounterVec
	Deletes  *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	HitRatio *prometheus.GaugeVec
}

var (
	globalProm     *promCollector
	globalPromOnce sync.Once
)

// getPromCollector lazily registers the prometheus metric families once per
// process; collectors themselves can be created freely (tests included).
func getPromCollector() *promCollector {
	globalPromOnce.Do(func() {
		globalProm = &promCollector{
			Hits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finance_cache_hits_total",
					Help: "The total number of cache hits",
				},
				[]string{"cache_type"},
			),
			Misses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finance_cache_misses_total",
					Help: "The total number of cache misses",
				},
				[]string{"cache_type"},
			),
			Sets: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finance_cache_sets_total",
					Help: "The total number of cache writes",
				},
				[]string{"cache_type"},
			),
			Deletes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finance_cache_deletes_total",
					Help: "The total number of cache key deletions",
				},
				[]string{"cache_type"},
			),
			Errors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "finance_cache_errors_total",
					Help: "The total number of cache store errors",
				},
				[]string{"cache_type"},
			),
			Latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "finance_cache_duration_seconds",
					Help:    "Cache operation duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"cache_type", "operation"},
			),
			HitRatio: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "finance_cache_hit_ratio",
					Help: "Cache hit ratio (hits/total reads)",
				},
				[]string{"cache_type"},
			),
		}
	})
	return globalProm
}

// Snapshot is an immutable read of the collector counters
type Snapshot struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Deletes int64   `json:"deletes"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// CacheCollector tracks cache outcomes. Counters are updated with atomic
// increments so concurrent request handlers never take a lock; a snapshot is
// consistent per counter, not across counters.
type CacheCollector struct {
	cacheType string
	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	errors    atomic.Int64
	prom      *promCollector
}

// NewCacheCollector creates a collector labelled with the given cache type
func NewCacheCollector(cacheType string) *CacheCollector {
	return &CacheCollector{
		cacheType: cacheType,
		prom:      getPromCollector(),
	}
}

func (c *CacheCollector) RecordHit() {
	c.hits.Add(1)
	c.prom.Hits.WithLabelValues(c.cacheType).Inc()
	c.updateHitRatio()
}

func (c *CacheCollector) RecordMiss() {
	c.misses.Add(1)
	c.prom.Misses.WithLabelValues(c.cacheType).Inc()
	c.updateHitRatio()
}

func (c *CacheCollector) RecordSet() {
	c.sets.Add(1)
	c.prom.Sets.WithLabelValues(c.cacheType).Inc()
}

func (c *CacheCollector) RecordDelete() {
	c.deletes.Add(1)
	c.prom.Deletes.WithLabelValues(c.cacheType).Inc()
}

func (c *CacheCollector) RecordError() {
	c.errors.Add(1)
	c.prom.Errors.WithLabelValues(c.cacheType).Inc()
}

// RecordLatency observes one store operation duration in seconds
func (c *CacheCollector) RecordLatency(operation string, seconds float64) {
	c.prom.Latency.WithLabelValues(c.cacheType, operation).Observe(seconds)
}

func (c *CacheCollector) updateHitRatio() {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total > 0 {
		c.prom.HitRatio.WithLabelValues(c.cacheType).Set(float64(hits) / float64(total))
	}
}

// Snapshot returns the current counter values. Each counter read is atomic;
// the set as a whole is not, which is acceptable for operator reporting.
func (c *CacheCollector) Snapshot() Snapshot {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if reads := hits + misses; reads > 0 {
		hitRate = float64(hits) / float64(reads)
	}

	return Snapshot{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Deletes: c.deletes.Load(),
		Errors:  c.errors.Load(),
		HitRate: hitRate,
	}
}

// Reset zeroes the snapshot counters. The prometheus counter families are
// monotonic by that system's contract and are left untouched.
func (c *CacheCollector) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.sets.Store(0)
	c.deletes.Store(0)
	c.errors.Store(0)
}
