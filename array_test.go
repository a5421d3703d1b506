package jbuild_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reoring/jbuild"
	"github.com/reoring/jbuild/cache"
)

// fakeCache is an in-memory cache.Cache that counts Store calls and can fail
// on demand.
type fakeCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	stores   int
	fetchErr error
	storeErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) Store(_ context.Context, keys []string, bufs [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores++
	if f.storeErr != nil {
		return f.storeErr
	}
	for i := range keys {
		f.data[keys[i]] = bufs[i]
	}
	return nil
}

func (f *fakeCache) Fetch(_ context.Context, keys []string) ([]string, [][]byte, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, nil, keys, f.fetchErr
	}
	var (
		found   []string
		bufs    [][]byte
		missing []string
	)
	for _, k := range keys {
		if buf, ok := f.data[k]; ok {
			found = append(found, k)
			bufs = append(bufs, buf)
		} else {
			missing = append(missing, k)
		}
	}
	return found, bufs, missing, nil
}

func (f *fakeCache) Stop() error { return nil }

func (f *fakeCache) storeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stores
}

type post struct {
	ID      int
	Content string
}

func (p post) CacheKey() string { return fmt.Sprintf("post/%d", p.ID) }

var _ cache.Keyer = post{}

func posts(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = post{ID: i, Content: fmt.Sprintf("c%d", i)}
	}
	return out
}

func postBlock(b *jbuild.Builder, v any) error {
	return b.Set("content", v.(post).Content)
}

func TestArray_Empty(t *testing.T) {
	b := jbuild.New()
	if err := b.Array(context.Background(), "items", nil, postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	if got, want := mustSerialize(t, b), `{"items":[]}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestArray_WithoutCacheBuildsEveryElement(t *testing.T) {
	b := jbuild.New()
	if err := b.Array(context.Background(), "items", posts(3), postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	want := `{"items":[{"content":"c0"},{"content":"c1"},{"content":"c2"}]}`
	if got := mustSerialize(t, b); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestArray_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	items := posts(1)

	b := jbuild.New(jbuild.WithCache(fc))
	if err := b.Array(ctx, "items", items, postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	first := mustSerialize(t, b)

	if buf, ok := fc.data["post/0"]; !ok || string(buf) != `{"content":"c0"}` {
		t.Fatalf("cache entry = %q ok=%v", buf, ok)
	}

	// Second build must hit the cache, skip the block and emit identical
	// bytes.
	var blockCalls int32
	b2 := jbuild.New(jbuild.WithCache(fc))
	err := b2.Array(ctx, "items", items, func(cb *jbuild.Builder, v any) error {
		atomic.AddInt32(&blockCalls, 1)
		return postBlock(cb, v)
	})
	if err != nil {
		t.Fatalf("second array err=%v", err)
	}
	if second := mustSerialize(t, b2); second != first {
		t.Fatalf("cached output differs:\nfirst=%s\nsecond=%s", first, second)
	}
	if blockCalls != 0 {
		t.Fatalf("block invoked %d times on full cache hit", blockCalls)
	}
}

func TestArray_OrderRegardlessOfHitMix(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	// Pre-cache only the odd elements, with recognizable payloads.
	fc.data["post/1"] = []byte(`{"content":"cached1"}`)
	fc.data["post/3"] = []byte(`{"content":"cached3"}`)

	// Mix in a non-cacheable element.
	items := posts(4)
	items = append(items, map[string]any{"plain": true})

	b := jbuild.New(jbuild.WithCache(fc))
	err := b.Array(ctx, "items", items, func(cb *jbuild.Builder, v any) error {
		if p, ok := v.(post); ok {
			return cb.Set("content", p.Content)
		}
		return cb.Set("content", "other")
	})
	if err != nil {
		t.Fatalf("array err=%v", err)
	}
	want := `{"items":[{"content":"c0"},{"content":"cached1"},{"content":"c2"},{"content":"cached3"},{"content":"other"}]}`
	if got := mustSerialize(t, b); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestArray_WriteBudget(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()

	b := jbuild.New(jbuild.WithCache(fc), jbuild.WithWriteBudget(3))
	if err := b.Array(ctx, "items", posts(10), postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	if got := fc.storeCount(); got != 3 {
		t.Fatalf("store calls = %d, want 3", got)
	}

	// Every element still appears, budget or not.
	out := mustSerialize(t, b)
	for i := 0; i < 10; i++ {
		frag := fmt.Sprintf(`{"content":"c%d"}`, i)
		if !strings.Contains(out, frag) {
			t.Fatalf("output missing %s: %s", frag, out)
		}
	}
}

func TestArray_DefaultWriteBudget(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()

	b := jbuild.New(jbuild.WithCache(fc))
	if err := b.Array(ctx, "items", posts(60), postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	if got := fc.storeCount(); got != jbuild.DefaultWriteBudget {
		t.Fatalf("store calls = %d, want %d", got, jbuild.DefaultWriteBudget)
	}
}

func TestArray_FetchFailureDegradesToMisses(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	fc.data["post/0"] = []byte(`{"content":"stale"}`)
	fc.fetchErr = errors.New("backend down")

	b := jbuild.New(jbuild.WithCache(fc))
	if err := b.Array(ctx, "items", posts(1), postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	// Rebuilt, not served stale; fetch error is not fatal.
	if got, want := mustSerialize(t, b), `{"items":[{"content":"c0"}]}`; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestArray_StoreFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()
	fc.storeErr = errors.New("backend down")

	b := jbuild.New(jbuild.WithCache(fc))
	if err := b.Array(ctx, "items", posts(2), postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	want := `{"items":[{"content":"c0"},{"content":"c1"}]}`
	if got := mustSerialize(t, b); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestArray_ParallelKeepsInputOrder(t *testing.T) {
	ctx := context.Background()
	fc := newFakeCache()

	b := jbuild.New(jbuild.WithCache(fc), jbuild.WithParallelism(8), jbuild.WithWriteBudget(5))
	if err := b.Array(ctx, "items", posts(50), postBlock); err != nil {
		t.Fatalf("array err=%v", err)
	}
	out := mustSerialize(t, b)

	want := `{"items":[`
	for i := 0; i < 50; i++ {
		if i > 0 {
			want += ","
		}
		want += fmt.Sprintf(`{"content":"c%d"}`, i)
	}
	want += `]}`
	if out != want {
		t.Fatalf("parallel output out of order:\ngot  %s\nwant %s", out, want)
	}
	if got := fc.storeCount(); got != 5 {
		t.Fatalf("store calls = %d, want 5", got)
	}
}

func TestAppendArray(t *testing.T) {
	b := jbuild.New()
	if err := b.AppendArray(context.Background(), posts(2), postBlock); err != nil {
		t.Fatalf("append array err=%v", err)
	}
	if err := b.AppendRaw(jbuild.RawJSON(`{"tail":true}`)); err != nil {
		t.Fatalf("append raw err=%v", err)
	}
	want := `[{"content":"c0"},{"content":"c1"},{"tail":true}]`
	if got := mustSerialize(t, b); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestArrayOf_Typed(t *testing.T) {
	b := jbuild.New()
	err := jbuild.ArrayOf(context.Background(), b, "nums", []int{1, 2, 3}, func(cb *jbuild.Builder, n int) error {
		return cb.Set("n", n*n)
	})
	if err != nil {
		t.Fatalf("array of err=%v", err)
	}
	want := `{"nums":[{"n":1},{"n":4},{"n":9}]}`
	if got := mustSerialize(t, b); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestScenario_Comments(t *testing.T) {
	comments := []any{
		map[string]any{"content": "hello"},
		map[string]any{"content": "world"},
	}
	b := jbuild.New()
	err := b.Array(context.Background(), "comments", comments, func(cb *jbuild.Builder, v any) error {
		return cb.Extract(v, "content")
	})
	if err != nil {
		t.Fatalf("array err=%v", err)
	}
	want := `{"comments":[{"content":"hello"},{"content":"world"}]}`
	if got := mustSerialize(t, b); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}
