package jbuild

import (
	"context"
	"sync/atomic"

	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/jbuild/cache"
)

// BlockFunc builds one piece of output. For array elements v is the element;
// for plain nested objects v is nil.
type BlockFunc func(b *Builder, v any) error

// Array builds an array from items under name. Elements implementing
// cache.Keyer are served from the injected cache when possible; rebuilt
// fragments are written back until the per-call write budget runs out. Output
// order always matches input order.
func (b *Builder) Array(ctx context.Context, name string, items []any, block BlockFunc) error {
	list, err := b.buildArray(ctx, items, block)
	if err != nil {
		return err
	}
	return b.Set(name, list)
}

// AppendArray converts the container to list mode and appends the built
// elements to it, cache-aware like Array.
func (b *Builder) AppendArray(ctx context.Context, items []any, block BlockFunc) error {
	list, err := b.buildArray(ctx, items, block)
	if err != nil {
		return err
	}
	if err := b.toListMode(); err != nil {
		return err
	}
	b.list = append(b.list, list...)
	return nil
}

// ArrayOf is a typed convenience over Array for homogeneous collections.
func ArrayOf[T any](ctx context.Context, b *Builder, name string, items []T, block func(*Builder, T) error) error {
	anys := make([]any, len(items))
	for i, it := range items {
		anys[i] = it
	}
	return b.Array(ctx, name, anys, func(cb *Builder, v any) error {
		return block(cb, v.(T))
	})
}

func (b *Builder) buildArray(ctx context.Context, items []any, block BlockFunc) ([]any, error) {
	if len(items) == 0 {
		return []any{}, nil
	}

	hits := b.fetchFragments(ctx, items)
	out := make([]any, len(items))

	// The budget is decremented atomically so parallel workers share one
	// counter.
	budget := int64(b.cfg.writeBudget)

	buildOne := func(ctx context.Context, i int) error {
		item := items[i]
		keyer, cacheable := item.(cache.Keyer)
		if cacheable {
			if buf, ok := hits[keyer.CacheKey()]; ok {
				out[i] = RawJSON(buf)
				return nil
			}
		}

		c := b.child()
		if err := block(c, item); err != nil {
			return err
		}

		if !cacheable || b.cfg.cache == nil {
			v, err := c.Finish()
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		}

		// Cache miss: serialize now so the fragment written back is exactly
		// the fragment emitted.
		buf, err := c.Serialize()
		if err != nil {
			return err
		}
		out[i] = RawJSON(buf)

		if atomic.AddInt64(&budget, -1) >= 0 {
			key := keyer.CacheKey()
			if err := b.cfg.cache.Store(ctx, []string{key}, [][]byte{buf}); err != nil {
				// A lost write only means a future rebuild.
				level.Warn(b.cfg.logger).Log("msg", "fragment cache write failed", "key", key, "err", err)
			}
		}
		return nil
	}

	if b.cfg.parallelism > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.cfg.parallelism)
		for i := range items {
			i := i
			g.Go(func() error { return buildOne(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	}

	for i := range items {
		if err := buildOne(ctx, i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fetchFragments batch-reads the cache keys exposed by items. A fetch error
// degrades to all-misses; correctness never depends on the cache answering.
func (b *Builder) fetchFragments(ctx context.Context, items []any) map[string][]byte {
	if b.cfg.cache == nil {
		return nil
	}
	var keys []string
	for _, item := range items {
		if keyer, ok := item.(cache.Keyer); ok {
			keys = append(keys, keyer.CacheKey())
		}
	}
	if len(keys) == 0 {
		return nil
	}

	found, bufs, _, err := b.cfg.cache.Fetch(ctx, keys)
	if err != nil {
		level.Warn(b.cfg.logger).Log("msg", "fragment cache fetch failed, rebuilding all elements", "keys", len(keys), "err", err)
		return nil
	}
	hits := make(map[string][]byte, len(found))
	for i, key := range found {
		hits[key] = bufs[i]
	}
	return hits
}
