package jbuild

import (
	"github.com/go-kit/log"
	"github.com/iancoleman/strcase"

	"github.com/reoring/jbuild/cache"
)

// DefaultWriteBudget bounds cache writes issued by a single Array call.
const DefaultWriteBudget = 50

// KeyFormat transforms field names before insertion.
type KeyFormat func(string) string

// Provided key formats.
var (
	LowerCamel KeyFormat = strcase.ToLowerCamel
	Snake      KeyFormat = strcase.ToSnake
)

type config struct {
	cache       cache.Cache
	writeBudget int
	keyFormat   KeyFormat
	ignoreNil   bool
	parallelism int
	logger      log.Logger
}

func defaultConfig() config {
	return config{
		writeBudget: DefaultWriteBudget,
		parallelism: 1,
		logger:      log.NewNopLogger(),
	}
}

// Option configures a Builder. Child builders inherit the parent's
// configuration unchanged, so options hold at every nesting depth.
type Option func(*config)

// WithCache injects the fragment cache consulted by Array builds. Without it
// every element is built from scratch.
func WithCache(c cache.Cache) Option {
	return func(cfg *config) { cfg.cache = c }
}

// WithWriteBudget caps the number of cache writes a single Array call may
// issue. Elements beyond the budget are still built correctly; only the
// write-back is skipped. n <= 0 disables write-back entirely.
func WithWriteBudget(n int) Option {
	return func(cfg *config) { cfg.writeBudget = n }
}

// WithKeyFormat applies f to every field name set on the builder.
func WithKeyFormat(f KeyFormat) Option {
	return func(cfg *config) { cfg.keyFormat = f }
}

// WithIgnoreNil drops Set calls whose value is nil.
func WithIgnoreNil(ignore bool) Option {
	return func(cfg *config) { cfg.ignoreNil = ignore }
}

// WithParallelism builds up to n array elements concurrently. Output order
// still matches input order; the write budget is shared across workers.
func WithParallelism(n int) Option {
	return func(cfg *config) { cfg.parallelism = n }
}

// WithLogger sets the logger used for non-fatal cache failures.
func WithLogger(l log.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}
