package cache

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/golang/snappy"
)

type snappyCache struct {
	next   Cache
	logger log.Logger
}

// NewSnappy makes a new snappy encoding cache wrapper.
func NewSnappy(next Cache, logger log.Logger) Cache {
	return &snappyCache{next: next, logger: logger}
}

func (s *snappyCache) Store(ctx context.Context, keys []string, bufs [][]byte) error {
	cs := make([][]byte, 0, len(bufs))
	for _, buf := range bufs {
		cs = append(cs, snappy.Encode(nil, buf))
	}
	return s.next.Store(ctx, keys, cs)
}

func (s *snappyCache) Fetch(ctx context.Context, keys []string) ([]string, [][]byte, []string, error) {
	found, bufs, missing, err := s.next.Fetch(ctx, keys)
	if err != nil {
		return nil, nil, keys, err
	}
	ds := make([][]byte, 0, len(bufs))
	for _, buf := range bufs {
		d, err := snappy.Decode(nil, buf)
		if err != nil {
			// A corrupt entry poisons the whole batch; report everything
			// missing so callers rebuild.
			level.Error(s.logger).Log("msg", "failed to decode cache entry", "err", err)
			return nil, nil, keys, nil
		}
		ds = append(ds, d)
	}
	return found, ds, missing, nil
}

func (s *snappyCache) Stop() error {
	return s.next.Stop()
}
