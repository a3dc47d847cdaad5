package tree

// This implementation is adapted from github.com/viant/gds/tree/cover.

import (
	"container/heap"
	"math"
	"sort"
	"sync"
)

// DefaultBase is the level expansion base used when none is provided.
const DefaultBase float32 = 1.3

// Tree represents a cover tree for Euclidean kNN queries over low
// dimensional points.
//
// Every node at level l has all its descendants within
// base^l * base/(base-1) of its own point.
type Tree[T any] struct {
	root          *Node
	base          float32
	distanceFunc  DistanceFunc
	values        values[T]
	size          int
	version       uint64
	boundStrategy BoundStrategy
	mu            sync.RWMutex
}

// BoundStrategy selects which lower-bound radius to use when pruning.
type BoundStrategy int

const (
	// BoundPerNode uses cached per-node subtree radius (tighter pruning).
	BoundPerNode BoundStrategy = iota
	// BoundLevel uses a geometric bound derived from the node level.
	BoundLevel
)

// NewTree constructs a cover tree with the provided base. A nil distance
// function selects EuclideanDistance.
func NewTree[T any](base float32, distanceFn DistanceFunc) *Tree[T] {
	if base <= 1 {
		base = DefaultBase
	}
	if distanceFn == nil {
		distanceFn = EuclideanDistance
	}
	return &Tree[T]{
		base:          base,
		distanceFunc:  distanceFn,
		boundStrategy: BoundPerNode,
	}
}

// SetBoundStrategy switches the pruning strategy.
func (t *Tree[T]) SetBoundStrategy(s BoundStrategy) {
	t.mu.Lock()
	t.boundStrategy = s
	t.mu.Unlock()
}

// Len reports the number of inserted points.
func (t *Tree[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Insert adds a new value/point pair to the tree and returns its index.
func (t *Tree[T]) Insert(value T, point *Point) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	point.index = t.values.put(value)
	if t.root == nil {
		node := NewNode(point, 0, t.base)
		t.root = &node
	} else {
		t.insert(point)
	}
	t.size++
	t.version++
	return point.index
}

// Value returns the stored value for the given point.
func (t *Tree[T]) Value(point *Point) T {
	var zero T
	if point == nil || !point.HasValue() {
		return zero
	}
	return t.values.value(point.index)
}

func (t *Tree[T]) levelDistance(level int32) float32 {
	return float32(math.Pow(float64(t.base), float64(level)))
}

func (t *Tree[T]) insert(point *Point) {
	// Raise the root until it covers the new point.
	for t.distanceFunc(point, t.root.point) >= t.root.baseLevel && !math.IsInf(float64(t.root.baseLevel), 1) {
		t.root.level++
		t.root.baseLevel = t.levelDistance(t.root.level)
	}
	node := t.root
	for {
		descended := false
		for i := range node.children {
			child := &node.children[i]
			if t.distanceFunc(point, child.point) < child.baseLevel {
				node = child
				descended = true
				break
			}
		}
		if !descended {
			node.children = append(node.children, NewNode(point, node.level-1, t.base))
			return
		}
	}
}

// KNearestNeighbors runs a depth-first kNN search. Results are ordered by
// ascending distance.
func (t *Tree[T]) KNearestNeighbors(point *Point, k int) []*Neighbor {
	// Per-node radii are computed lazily, so this strategy needs the write lock.
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil || k <= 0 {
		return nil
	}
	h := &Neighbors{}
	heap.Init(h)
	t.kNearestNeighbors(t.root, point, k, h)
	return drain(h)
}

func (t *Tree[T]) kNearestNeighbors(node *Node, point *Point, k int, h *Neighbors) {
	dc := t.distanceFunc(point, node.point)
	if h.Len() < k {
		heap.Push(h, Neighbor{Point: node.point, Distance: dc})
	} else if dc < (*h)[0].Distance {
		heap.Pop(h)
		heap.Push(h, Neighbor{Point: node.point, Distance: dc})
	}
	if len(node.children) == 0 {
		return
	}
	type childDist struct {
		child *Node
		dist  float32
	}
	cds := make([]childDist, 0, len(node.children))
	for i := range node.children {
		child := &node.children[i]
		cds = append(cds, childDist{child: child, dist: t.distanceFunc(point, child.point)})
	}
	sort.Slice(cds, func(i, j int) bool { return cds[i].dist < cds[j].dist })
	for _, cd := range cds {
		if h.Len() == k && (cd.dist-t.boundRadius(cd.child)) > withSlack((*h)[0].Distance) {
			continue
		}
		t.kNearestNeighbors(cd.child, point, k, h)
	}
}

// KNearestNeighborsBestFirst performs a best-first search with a node
// priority queue ordered by lower bound.
func (t *Tree[T]) KNearestNeighborsBestFirst(point *Point, k int) []*Neighbor {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil || k <= 0 {
		return nil
	}
	nh := &Neighbors{}
	heap.Init(nh)
	pq := &nodeQueue{}
	heap.Init(pq)
	rootDist := t.distanceFunc(point, t.root.point)
	heap.Push(pq, nodeItem{node: t.root, lb: rootDist - t.boundRadius(t.root), centerDist: rootDist})

	for pq.Len() > 0 {
		top := heap.Pop(pq).(nodeItem)
		if nh.Len() == k && top.lb > withSlack((*nh)[0].Distance) {
			break
		}
		dc := top.centerDist
		if nh.Len() < k {
			heap.Push(nh, Neighbor{Point: top.node.point, Distance: dc})
		} else if dc < (*nh)[0].Distance {
			heap.Pop(nh)
			heap.Push(nh, Neighbor{Point: top.node.point, Distance: dc})
		}
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.distanceFunc(point, child.point)
			lb := cd - t.boundRadius(child)
			if nh.Len() == k && lb > withSlack((*nh)[0].Distance) {
				continue
			}
			heap.Push(pq, nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
	return drain(nh)
}

// withSlack widens a pruning bound to absorb float32 rounding in the summed
// radii.
func withSlack(d float32) float32 { return d + 1e-4*(1+d) }

func drain(h *Neighbors) []*Neighbor {
	result := make([]*Neighbor, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		n := heap.Pop(h).(Neighbor)
		result[i] = &n
	}
	return result
}

func (t *Tree[T]) ensureRadius(n *Node) float32 {
	if n == nil {
		return 0
	}
	if n.radiusComputed == t.version {
		return n.radius
	}
	maxR := float32(0)
	for i := range n.children {
		child := &n.children[i]
		d := t.distanceFunc(n.point, child.point) + t.ensureRadius(child)
		if d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	n.radiusComputed = t.version
	return maxR
}

func (t *Tree[T]) levelCoverRadius(n *Node) float32 {
	if len(n.children) == 0 {
		return 0
	}
	return n.baseLevel * t.base / (t.base - 1)
}

func (t *Tree[T]) boundRadius(n *Node) float32 {
	if t.boundStrategy == BoundLevel {
		return t.levelCoverRadius(n)
	}
	return t.ensureRadius(n)
}

type nodeItem struct {
	node       *Node
	lb         float32
	centerDist float32
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int           { return len(q) }
func (q nodeQueue) Less(i, j int) bool { return q[i].lb < q[j].lb }
func (q nodeQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)        { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
