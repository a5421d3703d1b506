package jbuild_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/reoring/jbuild"
)

func TestEncode_TopLevel(t *testing.T) {
	out, err := jbuild.Encode(func(b *jbuild.Builder) error {
		if err := b.Set("title", "hello"); err != nil {
			return err
		}
		return b.Object("author", func(c *jbuild.Builder) error {
			return c.Set("name", "David")
		})
	})
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	want := `{"title":"hello","author":{"name":"David"}}`
	if string(out) != want {
		t.Fatalf("got %s want %s", out, want)
	}
}

func TestEncodeCached_FetchOrBuild(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	var builds int32
	block := func(b *jbuild.Builder) error {
		atomic.AddInt32(&builds, 1)
		return b.Set("n", 1)
	}

	first, err := jbuild.EncodeCached(ctx, "page/1", block, jbuild.WithCache(fc))
	if err != nil {
		t.Fatalf("encode cached err=%v", err)
	}
	if string(first) != `{"n":1}` {
		t.Fatalf("got %s", first)
	}

	second, err := jbuild.EncodeCached(ctx, "page/1", block, jbuild.WithCache(fc))
	if err != nil {
		t.Fatalf("encode cached err=%v", err)
	}
	if string(second) != string(first) {
		t.Fatalf("cached result differs: %s vs %s", second, first)
	}
	if builds != 1 {
		t.Fatalf("block built %d times, want 1", builds)
	}
}

func TestEncodeCached_WithoutCacheDegradesToEncode(t *testing.T) {
	out, err := jbuild.EncodeCached(context.Background(), "k", func(b *jbuild.Builder) error {
		return b.Set("n", 1)
	})
	if err != nil || string(out) != `{"n":1}` {
		t.Fatalf("err=%v out=%s", err, out)
	}
}

func TestSerialize_EncodeFailure(t *testing.T) {
	b := jbuild.New()
	if err := b.Set("ch", make(chan int)); err != nil {
		t.Fatalf("set err=%v", err)
	}
	_, err := b.Serialize()
	if it, ok := jbuild.AsIssue(err); !ok || it.Code != jbuild.CodeEncodeFailure {
		t.Fatalf("err=%v, want %s issue", err, jbuild.CodeEncodeFailure)
	}
}

func TestSerialize_RawPassthroughUnderField(t *testing.T) {
	b := jbuild.New()
	if err := b.Set("payload", jbuild.RawJSON(`{"x":1}`)); err != nil {
		t.Fatalf("set err=%v", err)
	}
	if got, want := mustSerialize(t, b), `{"payload":{"x":1}}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}
