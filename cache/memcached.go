package cache

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// MemcachedConfig is config for a memcached-backed Cache.
type MemcachedConfig struct {
	Addresses    string
	Expiration   time.Duration
	Timeout      time.Duration
	MaxIdleConns int
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given
// FlagSet.
func (cfg *MemcachedConfig) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	if prefix != "" {
		prefix += "."
	}
	f.StringVar(&cfg.Addresses, prefix+"memcached.addresses", "", "Comma-separated memcached server addresses; empty disables memcached.")
	f.DurationVar(&cfg.Expiration, prefix+"memcached.expiration", 0, "How long fragments stay in memcached.")
	f.DurationVar(&cfg.Timeout, prefix+"memcached.timeout", 100*time.Millisecond, "Maximum time to wait for a memcached request.")
	f.IntVar(&cfg.MaxIdleConns, prefix+"memcached.max-idle-conns", 16, "Maximum idle connections to memcached.")
}

// MemcachedClient is the subset of the memcache client used here; it exists
// for mocking.
type MemcachedClient interface {
	GetMulti(keys []string) (map[string]*memcache.Item, error)
	Set(item *memcache.Item) error
}

type memcached struct {
	client     MemcachedClient
	expiration int32
}

// NewMemcached makes a new memcached-backed Cache.
func NewMemcached(cfg MemcachedConfig) Cache {
	client := memcache.New(strings.Split(cfg.Addresses, ",")...)
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	if cfg.MaxIdleConns > 0 {
		client.MaxIdleConns = cfg.MaxIdleConns
	}
	return NewMemcachedWithClient(client, cfg.Expiration)
}

// NewMemcachedWithClient makes a memcached-backed Cache over an existing
// client.
func NewMemcachedWithClient(client MemcachedClient, expiration time.Duration) Cache {
	return &memcached{
		client:     client,
		expiration: int32(expiration.Seconds()),
	}
}

func (m *memcached) Store(_ context.Context, keys []string, bufs [][]byte) error {
	for i := range keys {
		item := &memcache.Item{
			Key:        keys[i],
			Value:      bufs[i],
			Expiration: m.expiration,
		}
		if err := m.client.Set(item); err != nil {
			return errors.Wrapf(err, "storing %q in memcached", keys[i])
		}
	}
	return nil
}

func (m *memcached) Fetch(_ context.Context, keys []string) ([]string, [][]byte, []string, error) {
	items, err := m.client.GetMulti(keys)
	if err != nil {
		return nil, nil, keys, errors.Wrap(err, "fetching from memcached")
	}

	var (
		found   []string
		bufs    [][]byte
		missing []string
	)
	for _, key := range keys {
		item, ok := items[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		found = append(found, key)
		bufs = append(bufs, item.Value)
	}
	return found, bufs, missing, nil
}

func (m *memcached) Stop() error { return nil }
