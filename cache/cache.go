// Package cache defines the fragment cache consumed by the builder's
// cache-aware array path, plus a set of composable implementations: an
// in-process LRU, a memcached backend, tiering, snappy compression,
// asynchronous write-behind and prometheus instrumentation.
package cache

import (
	"context"
	"flag"
	"time"

	"github.com/go-kit/log"
)

// Cache stores serialized JSON fragments by key. Fetch is batched: found and
// bufs are parallel slices ordered by the request, missing holds the keys not
// found. A non-nil error means the backend could not answer; callers should
// treat that as all keys missing.
type Cache interface {
	Store(ctx context.Context, keys []string, bufs [][]byte) error
	Fetch(ctx context.Context, keys []string) (found []string, bufs [][]byte, missing []string, err error)
	Stop() error
}

// Keyer is implemented by collection elements that can be fragment-cached.
// The key is opaque to the builder; it is only ever compared and stored.
type Keyer interface {
	CacheKey() string
}

// Config assembles a Cache from its parts.
type Config struct {
	EnableLRU    bool
	EnableSnappy bool

	DefaultValidity time.Duration

	LRU        LRUConfig
	Memcached  MemcachedConfig
	Background BackgroundConfig

	// For tests to inject specific implementations.
	Cache Cache
}

// RegisterFlags adds the flags required to config this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("", f)
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given
// FlagSet, prefixing each flag name.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	cfg.LRU.RegisterFlagsWithPrefix(prefix, f)
	cfg.Memcached.RegisterFlagsWithPrefix(prefix, f)
	cfg.Background.RegisterFlagsWithPrefix(prefix, f)

	if prefix != "" {
		prefix += "."
	}
	f.BoolVar(&cfg.EnableLRU, prefix+"cache.enable-lru", false, "Enable in-process LRU cache.")
	f.BoolVar(&cfg.EnableSnappy, prefix+"cache.enable-snappy", false, "Snappy-compress cached fragments.")
	f.DurationVar(&cfg.DefaultValidity, prefix+"cache.default-validity", 0, "Default validity of entries unless overridden per backend.")
}

// New composes a Cache from cfg. Multiple enabled backends are tiered in-process
// first; stores go through a background write-behind queue.
func New(cfg Config, logger log.Logger) (Cache, error) {
	if cfg.Cache != nil {
		return cfg.Cache, nil
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	var caches []Cache

	if cfg.EnableLRU {
		if cfg.LRU.Validity == 0 && cfg.DefaultValidity != 0 {
			cfg.LRU.Validity = cfg.DefaultValidity
		}
		c, err := NewLRU(cfg.LRU)
		if err != nil {
			return nil, err
		}
		caches = append(caches, Instrument("lru", c))
	}

	if cfg.Memcached.Addresses != "" {
		if cfg.Memcached.Expiration == 0 && cfg.DefaultValidity != 0 {
			cfg.Memcached.Expiration = cfg.DefaultValidity
		}
		caches = append(caches, Instrument("memcached", NewMemcached(cfg.Memcached)))
	}

	if len(caches) == 0 {
		return Noop(), nil
	}

	cache := NewTiered(caches)
	if len(caches) > 1 {
		cache = Instrument("tiered", cache)
	}
	if cfg.EnableSnappy {
		cache = NewSnappy(cache, logger)
	}
	return NewBackground(cfg.Background, cache, logger), nil
}

type noopCache struct{}

// Noop returns a Cache that stores nothing and misses every fetch.
func Noop() Cache { return noopCache{} }

func (noopCache) Store(_ context.Context, _ []string, _ [][]byte) error { return nil }

func (noopCache) Fetch(_ context.Context, keys []string) ([]string, [][]byte, []string, error) {
	return nil, nil, keys, nil
}

func (noopCache) Stop() error { return nil }
