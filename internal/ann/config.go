package ann

import (
	"fmt"
	"log/slog"

	"semsearch/internal/domain"
)

// Config carries the recognised index options.
type Config struct {
	// TreeCount is the forest breadth.
	TreeCount int
	// LeafThreshold caps the number of item ids stored in a leaf.
	LeafThreshold int
	// SearchExpansionFactor multiplies k to obtain the candidate target of a query.
	SearchExpansionFactor float64
	// RandomSeed makes builds reproducible.
	RandomSeed int64
	Metric     Metric
	// Workers bounds parallel tree construction; 0 means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		TreeCount:             10,
		LeafThreshold:         32,
		SearchExpansionFactor: 10,
		RandomSeed:            1,
		Metric:                Angular,
	}
}

// Validate reports out-of-range options as ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.TreeCount <= 0:
		return fmt.Errorf("%w: tree_count must be positive, got %d", domain.ErrInvalidConfig, c.TreeCount)
	case c.LeafThreshold <= 0:
		return fmt.Errorf("%w: leaf_threshold must be positive, got %d", domain.ErrInvalidConfig, c.LeafThreshold)
	case c.SearchExpansionFactor < 1:
		return fmt.Errorf("%w: search_expansion_factor must be >= 1, got %g", domain.ErrInvalidConfig, c.SearchExpansionFactor)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", domain.ErrInvalidConfig, c.Workers)
	case c.Metric != Angular && c.Metric != Euclidean:
		return fmt.Errorf("%w: unknown metric %d", domain.ErrInvalidConfig, c.Metric)
	}
	return nil
}

// ProgressFunc receives updates while trees are built.
type ProgressFunc func(done, total int)

// Option configures a Forest.
type Option func(*Forest)

// WithLogger sets the logger used for build records.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forest) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithWorkers overrides Config.Workers.
func WithWorkers(n int) Option {
	return func(f *Forest) {
		if n >= 0 {
			f.cfg.Workers = n
		}
	}
}

// WithProgress registers a callback invoked after every finished tree.
func WithProgress(fn ProgressFunc) Option {
	return func(f *Forest) { f.progress = fn }
}

// QueryOption customises a single query.
type QueryOption func(*queryConfig)

type queryConfig struct {
	expansion float64
}

// WithExpansionFactor overrides the configured search expansion factor for
// one query. Values below 1 are ignored.
func WithExpansionFactor(f float64) QueryOption {
	return func(cfg *queryConfig) {
		if f >= 1 {
			cfg.expansion = f
		}
	}
}
