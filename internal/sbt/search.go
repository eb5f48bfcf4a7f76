package sbt

// Predicate decides whether a vertex's filter could contain a query. For
// pruning to be sound the predicate must be monotone: whenever it holds for
// a leaf it must also hold for every ancestor, which any predicate built
// from filter membership satisfies because an ancestor's aggregate has a
// superset of each descendant's bits.
type Predicate func(Item) bool

// Find returns every leaf whose filter satisfies pred, in stored child
// order. Subtrees whose aggregated filter fails pred are pruned without
// visiting their leaves. Matches inherit the filter's approximate nature:
// false positives among the returned leaves are possible, missed true
// insertions are not.
//
// Find never mutates the tree and is safe for concurrent callers.
func (t *Tree) Find(pred Predicate) []*Leaf {
	var out []*Leaf
	t.root.find(pred, &out)
	return out
}

func (n *Node) find(pred Predicate, out *[]*Leaf) {
	if !pred(n) {
		return
	}
	for _, c := range n.children {
		c.find(pred, out)
	}
}

func (l *Leaf) find(pred Predicate, out *[]*Leaf) {
	if pred(l) {
		*out = append(*out, l)
	}
}

// ContainsKmer matches vertices whose filter reports the single kmer
// present.
func ContainsKmer(kmer string) Predicate {
	return func(it Item) bool {
		return it.Filter().Contains(kmer)
	}
}

// Containment matches vertices whose filter reports at least
// int(threshold * n) of the query sequence's n constituent k-mers present,
// with the k-mer length taken from the vertex's filter. A sequence shorter
// than the k-mer length decomposes into no k-mers and never matches.
func Containment(seq string, threshold float64) Predicate {
	return func(it Item) bool {
		f := it.Filter()
		k := int(f.Ksize())
		n := len(seq) - k + 1
		if n <= 0 {
			return false
		}
		need := int(threshold * float64(n))
		hits := 0
		for i := 0; i < n; i++ {
			if f.Contains(seq[i : i+k]) {
				hits++
			}
		}
		return hits >= need
	}
}
