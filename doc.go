package jbuild

// Package jbuild provides:
//
// - A Builder that accumulates ordered key/value pairs or array elements and
//   serializes them to JSON (Set/Object/Child/Array/Extract/Serialize)
// - A generic Call entry point that resolves field-name-style invocations into
//   the operation their argument shape implies
// - Fragment caching for array builds: elements exposing a cache key are
//   fetched in one batch and rebuilt fragments are written back under a
//   per-call write budget
// - Priming a builder from previously rendered JSON or YAML (FromJSON/FromYAML)
//
// Design policy:
// - Keep only public APIs in the root package; put the ordered container under
//   internal/.
// - Place the encoder under codec/ and the cache provider under cache/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  out, err := jbuild.Encode(func(b *jbuild.Builder) error {
//      if err := b.Set("title", "hello"); err != nil {
//          return err
//      }
//      return b.Array(ctx, "comments", comments, func(b *jbuild.Builder, v any) error {
//          return b.Extract(v, "content")
//      })
//  }, jbuild.WithCache(fragments))
//
// Builders are single-threaded: no operation is safe to invoke concurrently on
// the same Builder. Child builders own disjoint containers, which is what
// makes WithParallelism safe for array element construction.
