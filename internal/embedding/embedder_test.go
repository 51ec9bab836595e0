package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

// stubEmbedder returns vectors whose length is the length of the text.
type stubEmbedder struct {
	dropOne bool
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) Prepare(context.Context, []string) error { return nil }

func (s *stubEmbedder) Dimension() int { return 0 }

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return make([]float32, len(text)), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, _ := s.Embed(ctx, text)
		out = append(out, v)
	}
	if s.dropOne {
		out = out[1:]
	}
	return out, nil
}

func TestGuard_PinsFirstDimension(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(&stubEmbedder{}, 0)
	assert.Zero(t, g.Dimension())

	_, err := g.EmbedBatch(ctx, []string{"abc", "xyz"})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Dimension())

	_, err = g.Embed(ctx, "abcd")
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	var dm *domain.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 4, dm.Actual)

	_, err = g.EmbedBatch(ctx, []string{"abc", "ab"})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestGuard_PresetDimension(t *testing.T) {
	g := NewGuard(&stubEmbedder{}, 2)
	assert.Equal(t, 2, g.Dimension())
	_, err := g.Embed(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, "stub", g.Name())
}

func TestGuard_RejectsShortBatchAndEmptyVectors(t *testing.T) {
	ctx := context.Background()
	_, err := NewGuard(&stubEmbedder{dropOne: true}, 0).EmbedBatch(ctx, []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 vectors for 2 texts")

	_, err = NewGuard(&stubEmbedder{}, 0).Embed(ctx, "")
	assert.ErrorContains(t, err, "empty embedding")
}
