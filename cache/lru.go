package cache

import (
	"context"
	"flag"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// LRUConfig is config for an in-process LRU cache.
type LRUConfig struct {
	MaxEntries int
	Validity   time.Duration
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given
// FlagSet.
func (cfg *LRUConfig) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	if prefix != "" {
		prefix += "."
	}
	f.IntVar(&cfg.MaxEntries, prefix+"lru.max-entries", 1024, "Maximum entries held by the in-process LRU cache.")
	f.DurationVar(&cfg.Validity, prefix+"lru.validity", 0, "How long entries stay valid; 0 means forever.")
}

type lruEntry struct {
	buf     []byte
	expires time.Time
}

type lruCache struct {
	entries  *lru.Cache[string, lruEntry]
	validity time.Duration
}

// NewLRU makes a new in-process LRU-backed Cache.
func NewLRU(cfg LRUConfig) (Cache, error) {
	size := cfg.MaxEntries
	if size <= 0 {
		size = 1024
	}
	entries, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, errors.Wrap(err, "creating lru cache")
	}
	return &lruCache{entries: entries, validity: cfg.Validity}, nil
}

func (c *lruCache) Store(_ context.Context, keys []string, bufs [][]byte) error {
	for i := range keys {
		e := lruEntry{buf: bufs[i]}
		if c.validity > 0 {
			e.expires = time.Now().Add(c.validity)
		}
		c.entries.Add(keys[i], e)
	}
	return nil
}

func (c *lruCache) Fetch(_ context.Context, keys []string) ([]string, [][]byte, []string, error) {
	var (
		found   []string
		bufs    [][]byte
		missing []string
	)
	now := time.Now()
	for _, key := range keys {
		e, ok := c.entries.Get(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		if !e.expires.IsZero() && now.After(e.expires) {
			c.entries.Remove(key)
			missing = append(missing, key)
			continue
		}
		found = append(found, key)
		bufs = append(bufs, e.buf)
	}
	return found, bufs, missing, nil
}

func (c *lruCache) Stop() error {
	c.entries.Purge()
	return nil
}
