// Package sbt implements a sequence bloom tree: a binary tree whose leaves
// hold per-dataset k-mer membership filters and whose internal nodes hold
// the union of their descendants' filters. Queries are evaluated against the
// aggregated filters top-down, so whole subtrees are pruned the moment an
// internal node cannot possibly contain a match.
package sbt

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/agentic-research/sbtree/internal/filter"
)

// Item is a vertex of the tree: either an internal *Node or a *Leaf.
// There are exactly two implementations; find and persistence dispatch on
// the concrete type.
type Item interface {
	// Name returns the vertex's display identity.
	Name() string
	// Filter returns the vertex's membership filter: a leaf's dataset
	// filter, or an internal node's aggregate over all descendant leaves.
	Filter() *filter.Filter
	// Weight returns the heuristic insertion counter used to pick which
	// subtree to push into. It is not a leaf count: it grows by 1 on a
	// direct attach and by 2 on a push-down.
	Weight() int

	find(pred Predicate, out *[]*Leaf)
}

// Node is an internal vertex with up to two children and an aggregated
// filter covering every descendant leaf.
type Node struct {
	name     string
	filt     *filter.Filter
	children []Item
	weight   int
}

func (n *Node) Name() string           { return n.name }
func (n *Node) Filter() *filter.Filter { return n.filt }
func (n *Node) Weight() int            { return n.weight }

// Children returns the node's children in stored order.
func (n *Node) Children() []Item { return n.children }

// Leaf holds one dataset: its filter, populated entirely before insertion
// and never mutated afterwards, and an opaque metadata payload returned to
// callers on match.
type Leaf struct {
	name     string
	metadata any
	filt     *filter.Filter
}

// NewLeaf wraps a populated dataset filter. The filter must be fully built
// before the leaf is inserted into a tree; tree operations never write into
// leaf filters.
func NewLeaf(name string, metadata any, f *filter.Filter) *Leaf {
	return &Leaf{name: name, metadata: metadata, filt: f}
}

func (l *Leaf) Name() string           { return l.name }
func (l *Leaf) Filter() *filter.Filter { return l.filt }
func (l *Leaf) Weight() int            { return 0 }

// Metadata returns the caller-supplied payload.
func (l *Leaf) Metadata() any { return l.metadata }

// Tree is a sequence bloom tree under construction or query. Insertion is
// serialized internally (each add mutates aggregated filters along the
// root-to-insertion-point path); once building is done the tree is
// effectively read-only and Find may be called from any number of
// goroutines concurrently.
type Tree struct {
	mu      sync.Mutex
	factory filter.Factory
	root    *Node
	rng     *rand.Rand
	nnodes  int // names the next internal node
}

// New returns an empty tree whose filters all share factory's geometry.
// rng drives the insertion tie-break between equal-weight subtrees; pass a
// seeded generator for reproducible tree shapes, or nil for an unseeded
// one.
func New(factory filter.Factory, rng *rand.Rand) *Tree {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	t := &Tree{factory: factory, rng: rng}
	t.root = t.newNode()
	return t
}

// Factory returns the geometry configuration shared by every filter in the
// tree.
func (t *Tree) Factory() filter.Factory { return t.factory }

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Size returns the total vertex count, root included.
func (t *Tree) Size() int { return t.root.weight + 1 }

func (t *Tree) newNode() *Node {
	n := &Node{name: fmt.Sprintf("internal.%d", t.nnodes), filt: t.factory.New()}
	t.nnodes++
	return n
}

// Insert threads leaf into the tree, keeping it balanced by weight. The
// leaf's filter must share the tree's geometry; a mismatch returns
// filter.ErrStructuralMismatch before anything is mutated.
func (t *Tree) Insert(leaf *Leaf) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.factory.Compatible(leaf.filt) {
		return fmt.Errorf("insert %q: %w", leaf.name, filter.ErrStructuralMismatch)
	}
	return t.add(t.root, leaf)
}

// add attaches item beneath n. With a free child slot the item is attached
// directly (+1 weight). With both slots taken, the lighter child — chosen at
// random on a tie — is demoted under a fresh internal node together with the
// incoming item (+2 weight).
func (t *Tree) add(n *Node, item Item) error {
	if len(n.children) < 2 {
		n.children = append(n.children, item)
		if err := n.filt.UnionWith(item.Filter()); err != nil {
			return err
		}
		n.weight++
		return nil
	}

	var idx int
	switch {
	case n.children[0].Weight() == n.children[1].Weight():
		idx = t.rng.Intn(2)
	case n.children[0].Weight() < n.children[1].Weight():
		idx = 0
	default:
		idx = 1
	}
	demoted := n.children[idx]
	n.children = append(n.children[:idx], n.children[idx+1:]...)

	fresh := t.newNode()
	if err := t.add(fresh, item); err != nil {
		return err
	}
	if err := t.add(fresh, demoted); err != nil {
		return err
	}
	n.children = append(n.children, fresh)

	// The demoted child's bits are already in n's aggregate from its own
	// insertion; only the new item's bits are missing.
	if err := n.filt.UnionWith(item.Filter()); err != nil {
		return err
	}
	n.weight += 2
	return nil
}

// Walk visits every vertex depth-first in stored child order, reporting its
// depth below the root.
func (t *Tree) Walk(visit func(depth int, it Item)) {
	walkItem(t.root, 0, visit)
}

func walkItem(it Item, depth int, visit func(int, Item)) {
	visit(depth, it)
	if n, ok := it.(*Node); ok {
		for _, c := range n.children {
			walkItem(c, depth+1, visit)
		}
	}
}

// Leaves returns every leaf in stored order.
func (t *Tree) Leaves() []*Leaf {
	var out []*Leaf
	t.Walk(func(_ int, it Item) {
		if l, ok := it.(*Leaf); ok {
			out = append(out, l)
		}
	})
	return out
}

// LeafByName returns the named leaf, or nil if no such dataset exists.
func (t *Tree) LeafByName(name string) *Leaf {
	for _, l := range t.Leaves() {
		if l.name == name {
			return l
		}
	}
	return nil
}
