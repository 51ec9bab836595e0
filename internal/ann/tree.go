package ann

import (
	"fmt"
	"math/rand"
)

type node struct {
	// items is set on leaves only.
	items    []int
	plane    Hyperplane
	left     *node
	right    *node
	fallback bool
}

func (n *node) leaf() bool { return n.left == nil }

// Tree is one immutable random-projection tree over a set of item ids.
type Tree struct {
	root      *node
	dimension int
	metric    Metric
}

// TreeStats summarises the shape of a tree.
type TreeStats struct {
	Nodes     int
	Leaves    int
	Depth     int
	Fallbacks int
	Items     int
}

// BuildTree recursively partitions ids until every subset holds at most
// leafThreshold ids. The input slice is not modified.
func BuildTree(ids []int, lookup VectorLookup, leafThreshold int, metric Metric, rng *rand.Rand) (*Tree, error) {
	if leafThreshold <= 0 {
		return nil, fmt.Errorf("ann: leaf threshold must be positive, got %d", leafThreshold)
	}
	b := treeBuilder{
		lookup:        lookup,
		leafThreshold: leafThreshold,
		splitter:      Splitter{Metric: metric},
		rng:           rng,
	}
	root, err := b.build(ids)
	if err != nil {
		return nil, err
	}
	return &Tree{root: root, dimension: lookup.Dimension(), metric: metric}, nil
}

type treeBuilder struct {
	lookup        VectorLookup
	leafThreshold int
	splitter      Splitter
	rng           *rand.Rand
}

func (b *treeBuilder) build(ids []int) (*node, error) {
	if len(ids) <= b.leafThreshold {
		items := make([]int, len(ids))
		copy(items, ids)
		return &node{items: items}, nil
	}
	split, err := b.splitter.Split(ids, b.lookup, b.rng)
	if err != nil {
		return nil, err
	}
	left, err := b.build(split.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.build(split.Right)
	if err != nil {
		return nil, err
	}
	return &node{plane: split.Plane, left: left, right: right, fallback: split.Fallback}, nil
}

// Dimension returns the vector dimension the tree was built for.
func (t *Tree) Dimension() int { return t.dimension }

// Leaves returns the item ids of every leaf, left to right.
func (t *Tree) Leaves() [][]int {
	var out [][]int
	t.walk(func(n *node, _ int) {
		if n.leaf() {
			out = append(out, n.items)
		}
	})
	return out
}

// Stats walks the tree and reports its shape.
func (t *Tree) Stats() TreeStats {
	var st TreeStats
	t.walk(func(n *node, depth int) {
		st.Nodes++
		if depth > st.Depth {
			st.Depth = depth
		}
		if n.leaf() {
			st.Leaves++
			st.Items += len(n.items)
		} else if n.fallback {
			st.Fallbacks++
		}
	})
	return st
}

func (t *Tree) walk(fn func(n *node, depth int)) {
	type frame struct {
		n     *node
		depth int
	}
	stack := []frame{{t.root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(f.n, f.depth)
		if !f.n.leaf() {
			stack = append(stack, frame{f.n.right, f.depth + 1}, frame{f.n.left, f.depth + 1})
		}
	}
}
