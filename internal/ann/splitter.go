package ann

import (
	"math/rand"

	"semsearch/internal/domain"
)

// maxSplitAttempts bounds how many point pairs are sampled before the
// splitter gives up on geometry and falls back to index parity.
const maxSplitAttempts = 8

// VectorLookup is the read-only view of a vector store used to build and
// query trees. Ids range over [0, Len()).
type VectorLookup interface {
	Len() int
	Dimension() int
	Vector(id int) []float32
}

// Hyperplane is a unit normal and a threshold. A vector v lies on the left
// side when dot(Normal, v) - Threshold < 0. A nil Normal is the parity
// fallback plane: every margin is 0.
type Hyperplane struct {
	Normal    []float32
	Threshold float64
}

// Margin returns the signed distance from v to the plane, with v already
// projected into the metric's geometry.
func (h Hyperplane) Margin(v []float32) float64 {
	if h.Normal == nil {
		return 0
	}
	return dot(h.Normal, v) - h.Threshold
}

// Split is the outcome of partitioning a set of ids.
type Split struct {
	Plane    Hyperplane
	Left     []int
	Right    []int
	Fallback bool
}

// Splitter picks random bisector hyperplanes between sampled items.
type Splitter struct {
	Metric Metric
}

// Split partitions ids into two non-empty halves. It samples two distinct
// items, places the perpendicular bisector between them and partitions by
// side. When the sampled pairs keep producing an empty side (duplicate
// vectors), ids are split by position parity instead.
func (s Splitter) Split(ids []int, lookup VectorLookup, rng *rand.Rand) (Split, error) {
	if len(ids) < 2 {
		return Split{}, domain.ErrDegenerateSplit
	}
	for attempt := 0; attempt < maxSplitAttempts; attempt++ {
		i := rng.Intn(len(ids))
		j := rng.Intn(len(ids) - 1)
		if j >= i {
			j++
		}
		plane, ok := s.bisector(lookup.Vector(ids[i]), lookup.Vector(ids[j]))
		if !ok {
			continue
		}
		left, right := s.partition(ids, lookup, plane)
		if len(left) > 0 && len(right) > 0 {
			return Split{Plane: plane, Left: left, Right: right}, nil
		}
	}
	left, right := splitByParity(ids)
	return Split{Left: left, Right: right, Fallback: true}, nil
}

func (s Splitter) bisector(a, b []float32) (Hyperplane, bool) {
	pa, pb := s.Metric.project(a), s.Metric.project(b)
	normal := make([]float32, len(pa))
	for i := range normal {
		normal[i] = pb[i] - pa[i]
	}
	n := norm(normal)
	if n == 0 {
		return Hyperplane{}, false
	}
	inv := 1 / n
	mid := make([]float32, len(pa))
	for i := range normal {
		normal[i] = float32(float64(normal[i]) * inv)
		mid[i] = (pa[i] + pb[i]) * 0.5
	}
	return Hyperplane{Normal: normal, Threshold: dot(normal, mid)}, true
}

func (s Splitter) partition(ids []int, lookup VectorLookup, plane Hyperplane) (left, right []int) {
	left = make([]int, 0, len(ids)/2+1)
	right = make([]int, 0, len(ids)/2+1)
	for _, id := range ids {
		vec := lookup.Vector(id)
		margin := dot(plane.Normal, vec)*s.Metric.scale(vec) - plane.Threshold
		if margin < 0 {
			left = append(left, id)
		} else {
			right = append(right, id)
		}
	}
	return left, right
}

func splitByParity(ids []int) (left, right []int) {
	left = make([]int, 0, (len(ids)+1)/2)
	right = make([]int, 0, len(ids)/2)
	for i, id := range ids {
		if i%2 == 0 {
			left = append(left, id)
		} else {
			right = append(right, id)
		}
	}
	return left, right
}
