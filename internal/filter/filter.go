package filter

import (
	"errors"
	"math/bits"

	"github.com/zeebo/xxh3"
)

var (
	// ErrStructuralMismatch is returned when two filters with different
	// k-mer lengths or table geometry are combined. This is a configuration
	// error, not a data condition; callers should not retry.
	ErrStructuralMismatch = errors.New("filter: structural mismatch")

	// ErrInvalidData is returned when serialized filter data is missing,
	// truncated, or corrupted.
	ErrInvalidData = errors.New("filter: invalid serialized data")

	// ErrUnsupportedVersion is returned when the serialization version is
	// not supported.
	ErrUnsupportedVersion = errors.New("filter: unsupported serialization version")
)

// Filter is a fixed-geometry k-mer membership filter: an ordered set of
// independent bit tables, each with its own size. A k-mer hashes to one bit
// position per table (xxh3 seeded by the table index, modulo the table
// size), and is reported present only when every table agrees.
//
// False positives are possible and bounded by table occupancy; false
// negatives are impossible for any k-mer previously inserted. Bits are only
// ever set, never cleared.
//
// A Filter is not safe for concurrent mutation. Concurrent reads are safe
// once all inserts have completed.
type Filter struct {
	ksize  uint32
	sizes  []uint64 // bits per table
	tables [][]byte // LSB0 bitsets, one per table
	count  uint64   // elements inserted, for FP-rate estimation
}

// Ksize returns the k-mer length this filter was built for.
func (f *Filter) Ksize() uint32 { return f.ksize }

// Count returns the number of Insert calls made on this filter.
func (f *Filter) Count() uint64 { return f.count }

// NumTables returns the number of independent hash tables.
func (f *Filter) NumTables() int { return len(f.tables) }

// TableSizes returns a copy of the per-table sizes in bits.
func (f *Filter) TableSizes() []uint64 {
	sizes := make([]uint64, len(f.sizes))
	copy(sizes, f.sizes)
	return sizes
}

// Table returns the raw bitset bytes of table i. The returned slice aliases
// the filter's storage and must not be modified.
func (f *Filter) Table(i int) []byte { return f.tables[i] }

// bitPos returns the bit index of kmer in table i.
func (f *Filter) bitPos(i int, kmer string) uint64 {
	return xxh3.HashStringSeed(kmer, uint64(i)) % f.sizes[i]
}

// Insert adds kmer to the filter. Idempotent.
func (f *Filter) Insert(kmer string) {
	for i := range f.tables {
		j := f.bitPos(i, kmer)
		f.tables[i][j>>3] |= 1 << (j & 7)
	}
	f.count++
}

// Contains reports whether kmer may have been inserted. A false result is
// definitive; a true result may be a false positive.
func (f *Filter) Contains(kmer string) bool {
	for i := range f.tables {
		j := f.bitPos(i, kmer)
		if f.tables[i][j>>3]&(1<<(j&7)) == 0 {
			return false
		}
	}
	return true
}

// Compatible reports whether other shares this filter's exact geometry:
// same k-mer length, same table count, same per-table sizes.
func (f *Filter) Compatible(other *Filter) bool {
	if other == nil || f.ksize != other.ksize || len(f.sizes) != len(other.sizes) {
		return false
	}
	for i, m := range f.sizes {
		if other.sizes[i] != m {
			return false
		}
	}
	return true
}

// UnionWith bitwise-ORs every table of other into this filter in place,
// so that any k-mer reported present by either filter is reported present
// by the result. Returns ErrStructuralMismatch unless the two filters are
// Compatible.
func (f *Filter) UnionWith(other *Filter) error {
	if !f.Compatible(other) {
		return ErrStructuralMismatch
	}
	for i := range f.tables {
		dst, src := f.tables[i], other.tables[i]
		for j := range dst {
			dst[j] |= src[j]
		}
	}
	f.count += other.count
	return nil
}

// Occupied returns the total number of set bits across all tables.
func (f *Filter) Occupied() uint64 {
	var set uint64
	for _, tab := range f.tables {
		for _, b := range tab {
			set += uint64(bits.OnesCount8(b))
		}
	}
	return set
}

// FillRatio returns the overall fraction of set bits across all tables.
func (f *Filter) FillRatio() float64 {
	var total uint64
	for _, m := range f.sizes {
		total += m
	}
	if total == 0 {
		return 0
	}
	return float64(f.Occupied()) / float64(total)
}

// EstimateFalsePositiveRate estimates the probability that Contains returns
// true for a k-mer that was never inserted, as the product of each table's
// occupancy. Diagnostic only; correctness never depends on it.
func (f *Filter) EstimateFalsePositiveRate() float64 {
	rate := 1.0
	for i, tab := range f.tables {
		var set uint64
		for _, b := range tab {
			set += uint64(bits.OnesCount8(b))
		}
		rate *= float64(set) / float64(f.sizes[i])
	}
	return rate
}
