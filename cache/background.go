package cache

import (
	"context"
	"flag"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	droppedWriteBack = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jbuild",
		Name:      "cache_dropped_background_writes_total",
		Help:      "Total count of dropped write backs to cache.",
	})
	queueLength = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jbuild",
		Name:      "cache_background_queue_length",
		Help:      "Length of the cache background write queue.",
	})
)

func init() {
	prometheus.MustRegister(droppedWriteBack)
	prometheus.MustRegister(queueLength)
}

// BackgroundConfig is config for a background write-behind Cache.
type BackgroundConfig struct {
	WriteBackGoroutines int
	WriteBackBuffer     int
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given
// FlagSet.
func (cfg *BackgroundConfig) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	if prefix != "" {
		prefix += "."
	}
	f.IntVar(&cfg.WriteBackGoroutines, prefix+"background.write-back-goroutines", 4, "How many goroutines to use for background cache writes.")
	f.IntVar(&cfg.WriteBackBuffer, prefix+"background.write-back-buffer", 1000, "How many fragment writes to buffer before dropping.")
}

type backgroundCache struct {
	Cache
	logger log.Logger

	wg       sync.WaitGroup
	quit     chan struct{}
	bgWrites chan backgroundWrite
}

type backgroundWrite struct {
	keys []string
	bufs [][]byte
}

// NewBackground returns a Cache that performs stores on background goroutines.
// A full buffer drops the write; a rebuilt fragment is always correct, so a
// lost write only costs a future rebuild.
func NewBackground(cfg BackgroundConfig, cache Cache, logger log.Logger) Cache {
	goroutines := cfg.WriteBackGoroutines
	if goroutines <= 0 {
		goroutines = 1
	}
	buffer := cfg.WriteBackBuffer
	if buffer <= 0 {
		buffer = 1000
	}
	c := &backgroundCache{
		Cache:    cache,
		logger:   logger,
		quit:     make(chan struct{}),
		bgWrites: make(chan backgroundWrite, buffer),
	}

	c.wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go c.writeBackLoop()
	}
	return c
}

// Stop drains the queue and stops the wrapped cache.
func (c *backgroundCache) Stop() error {
	close(c.quit)
	c.wg.Wait()
	return c.Cache.Stop()
}

// Store queues the write and returns immediately.
func (c *backgroundCache) Store(_ context.Context, keys []string, bufs [][]byte) error {
	select {
	case c.bgWrites <- backgroundWrite{keys: keys, bufs: bufs}:
		queueLength.Add(float64(len(keys)))
	default:
		droppedWriteBack.Add(float64(len(keys)))
	}
	return nil
}

func (c *backgroundCache) writeBackLoop() {
	defer c.wg.Done()
	for {
		select {
		case bgWrite := <-c.bgWrites:
			queueLength.Sub(float64(len(bgWrite.keys)))
			if err := c.Cache.Store(context.Background(), bgWrite.keys, bgWrite.bufs); err != nil {
				level.Error(c.logger).Log("msg", "error writing to cache", "err", err)
			}
		case <-c.quit:
			// Flush whatever is still queued before exiting.
			for {
				select {
				case bgWrite := <-c.bgWrites:
					queueLength.Sub(float64(len(bgWrite.keys)))
					if err := c.Cache.Store(context.Background(), bgWrite.keys, bgWrite.bufs); err != nil {
						level.Error(c.logger).Log("msg", "error writing to cache", "err", err)
					}
				default:
					return
				}
			}
		}
	}
}
