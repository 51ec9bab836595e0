package ann

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"semsearch/internal/domain"
)

// Neighbor is one ranked query result.
type Neighbor struct {
	ID       int
	Distance float64
}

type nodeEntry struct {
	node     *node
	priority float64
}

// nodeQueue is a min-heap of pending subtrees; a smaller priority (closer to
// the splitting plane) is more promising.
type nodeQueue []nodeEntry

func (h nodeQueue) Len() int           { return len(h) }
func (h nodeQueue) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h nodeQueue) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nodeQueue) Push(x any) {
	*h = append(*h, x.(nodeEntry))
}

func (h *nodeQueue) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Query returns up to k items of store closest to query. Every tree is
// descended once along the query's side, with the skipped siblings queued by
// their distance to the plane. Queued subtrees are then expanded one leaf
// at a time, most promising first: a popped subtree is followed down its
// query side to a single leaf and its own skipped branches go back on the
// queue. Expansion stops when the candidate set reaches
// min(ceil(SearchExpansionFactor*k), store size) or the queue is drained.
// Candidates are ranked by exact distance, ties by ascending id.
//
// store must hold the items the forest was built over; a store with a
// different dimension or item count is rejected.
func Query(f *Forest, store VectorLookup, query []float32, k int, opts ...QueryOption) ([]Neighbor, error) {
	if f == nil || f.State() != StateBuilt {
		return nil, domain.ErrNotBuilt
	}
	if k <= 0 {
		return nil, domain.ErrInvalidK
	}
	if store.Dimension() != f.dimension {
		return nil, domain.NewDimensionMismatch(f.dimension, store.Dimension())
	}
	if store.Len() != f.store.Len() {
		return nil, fmt.Errorf("%w: built over %d items, got %d", ErrStoreMismatch, f.store.Len(), store.Len())
	}
	if len(query) != f.dimension {
		return nil, domain.NewDimensionMismatch(f.dimension, len(query))
	}

	cfg := queryConfig{expansion: f.cfg.SearchExpansionFactor}
	for _, opt := range opts {
		opt(&cfg)
	}
	target := uint64(math.Min(math.Ceil(cfg.expansion*float64(k)), float64(store.Len())))

	projected := f.cfg.Metric.project(query)
	candidates := roaring.New()
	pq := make(nodeQueue, 0, len(f.trees)*8)
	for _, t := range f.trees {
		descend(t.root, math.Inf(1), projected, &pq, candidates)
	}
	for candidates.GetCardinality() < target && pq.Len() > 0 {
		entry := heap.Pop(&pq).(nodeEntry)
		descend(entry.node, entry.priority, projected, &pq, candidates)
	}

	return rank(f.cfg.Metric, store, query, candidates, k), nil
}

// descend follows the query's side of every plane from n down to a leaf,
// queueing each skipped sibling, and adds the leaf's ids to candidates.
func descend(n *node, priority float64, query []float32, pq *nodeQueue, candidates *roaring.Bitmap) {
	for !n.leaf() {
		margin := n.plane.Margin(query)
		near, far := n.right, n.left
		if margin < 0 {
			near, far = n.left, n.right
		}
		heap.Push(pq, nodeEntry{node: far, priority: math.Min(priority, math.Abs(margin))})
		n = near
	}
	for _, id := range n.items {
		candidates.Add(uint32(id))
	}
}

func rank(metric Metric, store VectorLookup, query []float32, candidates *roaring.Bitmap, k int) []Neighbor {
	scored := make([]Neighbor, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		id := int(it.Next())
		scored = append(scored, Neighbor{ID: id, Distance: metric.Distance(query, store.Vector(id))})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance == scored[j].Distance {
			return scored[i].ID < scored[j].ID
		}
		return scored[i].Distance < scored[j].Distance
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
