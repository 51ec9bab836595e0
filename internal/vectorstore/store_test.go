package vectorstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

func TestStore_AssignsDenseIDs(t *testing.T) {
	s := New(0)
	assert.Zero(t, s.Dimension())

	for i, text := range []string{"a", "b", "c"} {
		id, err := s.Add(text, []float32{float32(i), 1})
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.Dimension())
	assert.Equal(t, "b", s.Payload(1))
	assert.Equal(t, []float32{2, 1}, s.Vector(2))

	item, ok := s.Item(0)
	require.True(t, ok)
	assert.Equal(t, Item{ID: 0, Vector: []float32{0, 1}, Payload: "a"}, item)
	_, ok = s.Item(3)
	assert.False(t, ok)
}

func TestStore_CopiesVectors(t *testing.T) {
	s := New(2)
	vec := []float32{1, 2}
	_, err := s.Add("x", vec)
	require.NoError(t, err)
	vec[0] = 99
	assert.Equal(t, []float32{1, 2}, s.Vector(0))
}

func TestStore_RejectsWrongDimension(t *testing.T) {
	s := New(3)
	_, err := s.Add("short", []float32{1, 2})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	var dm *domain.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)
	assert.Zero(t, s.Len())

	_, err = New(0).Add("empty", nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStore_FreezeMakesReadOnly(t *testing.T) {
	s := New(1)
	_, err := s.Add("a", []float32{1})
	require.NoError(t, err)
	s.Freeze()
	s.Freeze()
	assert.True(t, s.Frozen())

	_, err = s.Add("b", []float32{2})
	assert.ErrorIs(t, err, domain.ErrStoreFrozen)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "a", s.Payload(0))
}

func TestStore_AllIteratesInOrder(t *testing.T) {
	s := New(1)
	for _, p := range []string{"x", "y", "z"} {
		_, err := s.Add(p, []float32{1})
		require.NoError(t, err)
	}
	var got []string
	for id, item := range s.All() {
		assert.Equal(t, id, item.ID)
		got = append(got, item.Payload)
	}
	assert.Equal(t, []string{"x", "y", "z"}, got)

	for range s.All() {
		break
	}
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s := New(2)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := s.Add("", []float32{1, 2})
				assert.NoError(t, err)
				_ = s.Len()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, s.Len())
}
