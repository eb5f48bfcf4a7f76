package filter

import (
	"errors"
	"math/rand"
	"testing"
)

var testSizes = []uint64{101, 103, 117}

func newTestFilter(t *testing.T) *Filter {
	t.Helper()
	fac, err := NewFactory(5, testSizes)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return fac.New()
}

func TestFilter_NoFalseNegatives(t *testing.T) {
	f := newTestFilter(t)
	kmers := []string{"AAAAA", "AAAAT", "AAAAC", "CAAAA", "GAAAA", "TTTTT"}
	for _, kmer := range kmers {
		f.Insert(kmer)
	}
	for _, kmer := range kmers {
		if !f.Contains(kmer) {
			t.Errorf("Contains(%q) = false after Insert", kmer)
		}
	}
	if f.Count() != uint64(len(kmers)) {
		t.Errorf("Count = %d, want %d", f.Count(), len(kmers))
	}
}

func TestFilter_NoFalseNegativesRandom(t *testing.T) {
	fac, err := NewFactory(8, []uint64{9973, 10007, 10037})
	if err != nil {
		t.Fatal(err)
	}
	f := fac.New()
	rng := rand.New(rand.NewSource(42))
	kmers := make([]string, 500)
	for i := range kmers {
		b := make([]byte, 8)
		for j := range b {
			b[j] = "ACGT"[rng.Intn(4)]
		}
		kmers[i] = string(b)
		f.Insert(kmers[i])
	}
	for _, kmer := range kmers {
		if !f.Contains(kmer) {
			t.Fatalf("Contains(%q) = false after Insert", kmer)
		}
	}
}

func TestFilter_EmptyContainsNothingInserted(t *testing.T) {
	f := newTestFilter(t)
	if f.Occupied() != 0 {
		t.Errorf("Occupied = %d on empty filter", f.Occupied())
	}
	if f.FillRatio() != 0 {
		t.Errorf("FillRatio = %v on empty filter", f.FillRatio())
	}
}

func TestFilter_UnionMonotonicity(t *testing.T) {
	fac, _ := NewFactory(5, testSizes)
	a := fac.New()
	b := fac.New()
	a.Insert("AAAAA")
	a.Insert("AAAAT")
	b.Insert("CAAAA")
	b.Insert("GAAAA")

	if err := a.UnionWith(b); err != nil {
		t.Fatalf("UnionWith: %v", err)
	}
	for _, kmer := range []string{"AAAAA", "AAAAT", "CAAAA", "GAAAA"} {
		if !a.Contains(kmer) {
			t.Errorf("after union, Contains(%q) = false", kmer)
		}
	}
	// the union writes only into the receiver
	if b.Count() != 2 {
		t.Errorf("operand count changed to %d", b.Count())
	}
}

func TestFilter_UnionStructuralMismatch(t *testing.T) {
	facA, _ := NewFactory(5, testSizes)
	a := facA.New()

	cases := []struct {
		name  string
		ksize uint32
		sizes []uint64
	}{
		{"different ksize", 7, testSizes},
		{"different table count", 5, []uint64{101, 103}},
		{"different table size", 5, []uint64{101, 103, 119}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fac, err := NewFactory(tc.ksize, tc.sizes)
			if err != nil {
				t.Fatal(err)
			}
			if err := a.UnionWith(fac.New()); !errors.Is(err, ErrStructuralMismatch) {
				t.Fatalf("got %v, want ErrStructuralMismatch", err)
			}
		})
	}
}

func TestFactory_Compatible(t *testing.T) {
	fac, _ := NewFactory(5, testSizes)
	if !fac.Compatible(fac.New()) {
		t.Error("factory rejects its own filter")
	}
	other, _ := NewFactory(6, testSizes)
	if fac.Compatible(other.New()) {
		t.Error("factory accepts a filter with a different ksize")
	}
	if fac.Compatible(nil) {
		t.Error("factory accepts nil")
	}
}

func TestFactory_Validation(t *testing.T) {
	if _, err := NewFactory(0, testSizes); err == nil {
		t.Error("NewFactory accepted zero ksize")
	}
	if _, err := NewFactory(5, nil); err == nil {
		t.Error("NewFactory accepted empty table sizes")
	}
	if _, err := NewFactory(5, []uint64{101, 0}); err == nil {
		t.Error("NewFactory accepted a zero table size")
	}
}

func TestFactoryOf_RoundTrip(t *testing.T) {
	fac, _ := NewFactory(5, testSizes)
	f := fac.New()
	f.Insert("AAAAA")

	got := FactoryOf(f)
	if got.Ksize() != 5 {
		t.Errorf("Ksize = %d, want 5", got.Ksize())
	}
	sizes := got.TableSizes()
	if len(sizes) != len(testSizes) {
		t.Fatalf("TableSizes = %v, want %v", sizes, testSizes)
	}
	for i, m := range testSizes {
		if sizes[i] != m {
			t.Errorf("TableSizes[%d] = %d, want %d", i, sizes[i], m)
		}
	}
	if !got.Compatible(f) {
		t.Error("recovered factory incompatible with its source filter")
	}
}

func TestFilter_FalsePositiveRateGrowsWithOccupancy(t *testing.T) {
	fac, _ := NewFactory(5, testSizes)
	f := fac.New()
	prev := f.EstimateFalsePositiveRate()
	if prev != 0 {
		t.Fatalf("empty filter FP estimate = %v, want 0", prev)
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		b := make([]byte, 5)
		for j := range b {
			b[j] = "ACGT"[rng.Intn(4)]
		}
		f.Insert(string(b))
	}
	cur := f.EstimateFalsePositiveRate()
	if cur <= prev {
		t.Errorf("FP estimate did not grow: %v -> %v", prev, cur)
	}
	if cur < 0 || cur > 1 {
		t.Errorf("FP estimate %v outside [0,1]", cur)
	}
}
