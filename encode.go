package jbuild

import (
	"context"

	"github.com/go-kit/log/level"

	"github.com/reoring/jbuild/codec"
)

// Serialize finishes the container and renders it as JSON.
func (b *Builder) Serialize() ([]byte, error) {
	v, err := b.Finish()
	if err != nil {
		return nil, err
	}
	out, err := codec.Encode(v)
	if err != nil {
		return nil, encodeFailure(err)
	}
	return out, nil
}

// Encode builds a fresh top-level container with block and serializes it.
func Encode(block func(*Builder) error, opts ...Option) ([]byte, error) {
	b := New(opts...)
	if err := block(b); err != nil {
		return nil, err
	}
	return b.Serialize()
}

// EncodeCached is Encode wrapped in a single whole-result fetch-or-build
// against the injected cache. Without a cache it degrades to Encode.
func EncodeCached(ctx context.Context, key string, block func(*Builder) error, opts ...Option) ([]byte, error) {
	b := New(opts...)
	if b.cfg.cache == nil {
		return Encode(block, opts...)
	}

	found, bufs, _, err := b.cfg.cache.Fetch(ctx, []string{key})
	if err != nil {
		level.Warn(b.cfg.logger).Log("msg", "result cache fetch failed, rebuilding", "key", key, "err", err)
	} else if len(found) == 1 && found[0] == key {
		return bufs[0], nil
	}

	if err := block(b); err != nil {
		return nil, err
	}
	out, err := b.Serialize()
	if err != nil {
		return nil, err
	}
	if err := b.cfg.cache.Store(ctx, []string{key}, [][]byte{out}); err != nil {
		level.Warn(b.cfg.logger).Log("msg", "result cache write failed", "key", key, "err", err)
	}
	return out, nil
}
