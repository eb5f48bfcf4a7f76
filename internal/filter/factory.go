package filter

import (
	"errors"
	"fmt"
)

// Factory manufactures empty filters with a fixed geometry. Every filter in
// one tree must come from the same factory configuration; that is what keeps
// unions across the tree well-defined.
type Factory struct {
	ksize uint32
	sizes []uint64
}

// NewFactory returns a factory producing filters for k-mers of length ksize
// with the given per-table sizes in bits. Table sizes are conventionally
// distinct primes.
func NewFactory(ksize uint32, tableSizes []uint64) (Factory, error) {
	if ksize == 0 {
		return Factory{}, errors.New("filter: ksize must be non-zero")
	}
	if len(tableSizes) == 0 {
		return Factory{}, errors.New("filter: at least one table size required")
	}
	sizes := make([]uint64, len(tableSizes))
	for i, m := range tableSizes {
		if m == 0 {
			return Factory{}, fmt.Errorf("filter: table %d has zero size", i)
		}
		sizes[i] = m
	}
	return Factory{ksize: ksize, sizes: sizes}, nil
}

// FactoryOf recovers the factory configuration of an existing filter. Used
// when reconstructing a tree from storage: the root blob's geometry seeds
// the factory for any internal nodes created later.
func FactoryOf(f *Filter) Factory {
	return Factory{ksize: f.ksize, sizes: f.TableSizes()}
}

// Ksize returns the k-mer length of filters this factory produces.
func (fa Factory) Ksize() uint32 { return fa.ksize }

// TableSizes returns a copy of the per-table sizes in bits.
func (fa Factory) TableSizes() []uint64 {
	sizes := make([]uint64, len(fa.sizes))
	copy(sizes, fa.sizes)
	return sizes
}

// New returns an empty filter with this factory's geometry.
func (fa Factory) New() *Filter {
	tables := make([][]byte, len(fa.sizes))
	sizes := make([]uint64, len(fa.sizes))
	for i, m := range fa.sizes {
		tables[i] = make([]byte, (m+7)/8)
		sizes[i] = m
	}
	return &Filter{ksize: fa.ksize, sizes: sizes, tables: tables}
}

// Compatible reports whether f could have been produced by this factory.
func (fa Factory) Compatible(f *Filter) bool {
	if f == nil || f.ksize != fa.ksize || len(f.sizes) != len(fa.sizes) {
		return false
	}
	for i, m := range fa.sizes {
		if f.sizes[i] != m {
			return false
		}
	}
	return true
}
