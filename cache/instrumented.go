package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jbuild",
		Name:      "cache_request_duration_seconds",
		Help:      "Total time spent in seconds doing cache requests.",
		// Cache requests are very quick: smallest bucket is 16us, biggest is 1s.
		Buckets: prometheus.ExponentialBuckets(0.000016, 4, 8),
	}, []string{"name", "method"})

	fetchedKeys = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jbuild",
		Name:      "cache_fetched_keys_total",
		Help:      "Total count of keys requested from cache.",
	}, []string{"name"})

	hits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jbuild",
		Name:      "cache_hits_total",
		Help:      "Total count of keys found in cache.",
	}, []string{"name"})

	valueSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jbuild",
		Name:      "cache_value_size_bytes",
		Help:      "Size of values in the cache.",
		// Fragments are generally small JSON objects: 64B to 1MB.
		Buckets: prometheus.ExponentialBuckets(64, 4, 8),
	}, []string{"name", "method"})
)

func init() {
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(fetchedKeys)
	prometheus.MustRegister(hits)
	prometheus.MustRegister(valueSize)
}

// Instrument returns an instrumented cache.
func Instrument(name string, cache Cache) Cache {
	return &instrumentedCache{
		name:  name,
		Cache: cache,

		fetchDuration:    requestDuration.WithLabelValues(name, "fetch"),
		storeDuration:    requestDuration.WithLabelValues(name, "store"),
		fetchedKeys:      fetchedKeys.WithLabelValues(name),
		hits:             hits.WithLabelValues(name),
		storedValueSize:  valueSize.WithLabelValues(name, "store"),
		fetchedValueSize: valueSize.WithLabelValues(name, "fetch"),
	}
}

type instrumentedCache struct {
	name string
	Cache

	fetchDuration, storeDuration      prometheus.Observer
	fetchedKeys, hits                 prometheus.Counter
	storedValueSize, fetchedValueSize prometheus.Observer
}

func (i *instrumentedCache) Store(ctx context.Context, keys []string, bufs [][]byte) error {
	for j := range bufs {
		i.storedValueSize.Observe(float64(len(bufs[j])))
	}

	start := time.Now()
	err := i.Cache.Store(ctx, keys, bufs)
	i.storeDuration.Observe(time.Since(start).Seconds())
	return err
}

func (i *instrumentedCache) Fetch(ctx context.Context, keys []string) ([]string, [][]byte, []string, error) {
	start := time.Now()
	found, bufs, missing, err := i.Cache.Fetch(ctx, keys)
	i.fetchDuration.Observe(time.Since(start).Seconds())

	i.fetchedKeys.Add(float64(len(keys)))
	i.hits.Add(float64(len(found)))
	for j := range bufs {
		i.fetchedValueSize.Observe(float64(len(bufs[j])))
	}
	return found, bufs, missing, err
}

func (i *instrumentedCache) Stop() error {
	return i.Cache.Stop()
}
