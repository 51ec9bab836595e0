// Package ann implements an approximate nearest-neighbour index: a forest of
// random-hyperplane binary trees over a read-only vector store, queried with
// a priority-guided traversal and ranked by exact distance.
package ann

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"semsearch/internal/domain"
)

// ErrAlreadyBuilt is returned when Build is called on a forest that is
// building or built. A forest is built once.
var ErrAlreadyBuilt = errors.New("ann: forest already built")

// ErrStoreMismatch is returned when a query names a store whose item count
// differs from the store the forest was built over.
var ErrStoreMismatch = errors.New("ann: store does not match the forest")

// State is the lifecycle position of a Forest.
type State int32

const (
	StateEmpty State = iota
	StateBuilding
	StateBuilt
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilding:
		return "building"
	case StateBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// Freezer is implemented by stores that can be switched to read-only.
type Freezer interface {
	Freeze()
}

// Forest owns a fixed number of independently built trees over one store.
// After Build it holds no mutable state and is safe for concurrent queries.
type Forest struct {
	cfg   Config
	state atomic.Int32

	trees     []*Tree
	store     VectorLookup
	dimension int

	logger   *slog.Logger
	progress ProgressFunc
}

// ForestStats summarises a built forest.
type ForestStats struct {
	Items     int
	Dimension int
	Trees     []TreeStats
}

// MaxDepth returns the depth of the deepest tree.
func (s ForestStats) MaxDepth() int {
	d := 0
	for _, t := range s.Trees {
		if t.Depth > d {
			d = t.Depth
		}
	}
	return d
}

// New creates an empty forest.
func New(cfg Config, opts ...Option) (*Forest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Forest{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Build creates a forest and builds it over store.
func Build(ctx context.Context, store VectorLookup, cfg Config, opts ...Option) (*Forest, error) {
	f, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := f.Build(ctx, store); err != nil {
		return nil, err
	}
	return f, nil
}

// Build freezes store (when it supports it) and builds TreeCount trees over
// all of its ids. Trees are built in parallel, each from its own rng seeded
// with RandomSeed + i*7919. On failure the forest returns to StateEmpty.
func (f *Forest) Build(ctx context.Context, store VectorLookup) error {
	if !f.state.CompareAndSwap(int32(StateEmpty), int32(StateBuilding)) {
		return ErrAlreadyBuilt
	}
	trees, err := f.buildTrees(ctx, store)
	if err != nil {
		f.state.Store(int32(StateEmpty))
		return err
	}
	f.trees = trees
	f.store = store
	f.dimension = store.Dimension()
	f.state.Store(int32(StateBuilt))
	return nil
}

func (f *Forest) buildTrees(ctx context.Context, store VectorLookup) ([]*Tree, error) {
	n := store.Len()
	if n == 0 {
		return nil, domain.ErrEmptyStore
	}
	if fr, ok := store.(Freezer); ok {
		fr.Freeze()
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}

	workers := f.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	start := time.Now()
	trees := make([]*Tree, f.cfg.TreeCount)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.cfg.RandomSeed + int64(i)*7919))
			t, err := BuildTree(ids, store, f.cfg.LeafThreshold, f.cfg.Metric, rng)
			if err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = t
			f.logger.Debug("tree built", "tree", i, "depth", t.Stats().Depth)
			if f.progress != nil {
				f.progress(int(done.Add(1)), len(trees))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ann: build forest: %w", err)
	}
	f.logger.Info("forest built",
		"trees", len(trees),
		"items", n,
		"leaf_threshold", f.cfg.LeafThreshold,
		"metric", f.cfg.Metric.String(),
		"duration", time.Since(start),
	)
	return trees, nil
}

// State returns the current lifecycle state.
func (f *Forest) State() State { return State(f.state.Load()) }

// Config returns the configuration the forest was created with.
func (f *Forest) Config() Config { return f.cfg }

// Dimension returns the vector dimension of a built forest, 0 otherwise.
func (f *Forest) Dimension() int {
	if f.State() != StateBuilt {
		return 0
	}
	return f.dimension
}

// Trees returns the built trees in build order.
func (f *Forest) Trees() []*Tree {
	if f.State() != StateBuilt {
		return nil
	}
	return f.trees
}

// Stats reports the shape of every tree. It is empty before Build.
func (f *Forest) Stats() ForestStats {
	if f.State() != StateBuilt {
		return ForestStats{}
	}
	st := ForestStats{Items: f.store.Len(), Dimension: f.dimension, Trees: make([]TreeStats, len(f.trees))}
	for i, t := range f.trees {
		st.Trees[i] = t.Stats()
	}
	return st
}

// Search queries the forest against the store it was built over.
func (f *Forest) Search(query []float32, k int, opts ...QueryOption) ([]Neighbor, error) {
	if f.State() != StateBuilt {
		return nil, domain.ErrNotBuilt
	}
	return Query(f, f.store, query, k, opts...)
}
