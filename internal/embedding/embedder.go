// Package embedding holds the text embedder contract shared by the local and
// remote implementations in its subpackages.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"semsearch/internal/domain"
)

// Embedder converts free text into a numeric vector representation.
type Embedder = domain.Embedder

// Guard pins the vector dimension to the first one an embedder reports and
// rejects every later vector of a different length.
type Guard struct {
	inner Embedder

	mu  sync.Mutex
	dim int
}

var _ Embedder = (*Guard)(nil)

// NewGuard wraps inner. A positive dim pins the dimension up front.
func NewGuard(inner Embedder, dim int) *Guard {
	if dim < 0 {
		dim = 0
	}
	return &Guard{inner: inner, dim: dim}
}

// Name returns the wrapped embedder's name.
func (g *Guard) Name() string { return g.inner.Name() }

// Prepare forwards to the wrapped embedder.
func (g *Guard) Prepare(ctx context.Context, corpus []string) error {
	return g.inner.Prepare(ctx, corpus)
}

// Dimension returns the pinned dimension, or the wrapped embedder's before
// anything was observed.
func (g *Guard) Dimension() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dim != 0 {
		return g.dim
	}
	return g.inner.Dimension()
}

// Embed embeds one text and checks its dimension.
func (g *Guard) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := g.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := g.observe(len(vec)); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch embeds texts and checks that one vector per text came back,
// all of the pinned dimension.
func (g *Guard) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := g.inner.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s: got %d vectors for %d texts", g.inner.Name(), len(vecs), len(texts))
	}
	for _, v := range vecs {
		if err := g.observe(len(v)); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

func (g *Guard) observe(n int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dim == 0 {
		if n == 0 {
			return fmt.Errorf("%s: empty embedding", g.inner.Name())
		}
		g.dim = n
		return nil
	}
	if n != g.dim {
		return domain.NewDimensionMismatch(g.dim, n)
	}
	return nil
}
