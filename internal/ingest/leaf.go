package ingest

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/zeebo/xxh3"

	"github.com/agentic-research/sbtree/internal/filter"
	"github.com/agentic-research/sbtree/internal/sbt"
)

// DatasetSpec names one dataset to ingest: its leaf name, the opaque
// metadata returned to callers on match, and its sequences.
type DatasetSpec struct {
	Name     string
	Metadata any
	Seqs     []string
}

// LeafStats summarizes one ingested dataset for diagnostics and the
// catalog.
type LeafStats struct {
	Sequences         int
	KmersInserted     uint64
	DistinctKmers     uint64 // estimated via 32-bit hash dedup
	FillRatio         float64
	FalsePositiveRate float64
}

// BuildLeaf populates a fresh filter with every k-mer of the dataset and
// wraps it in a leaf. Distinct k-mers are counted approximately by
// deduplicating 32-bit k-mer hashes in a roaring bitmap; two k-mers
// colliding on the truncated hash undercount by one, which is fine for a
// diagnostic.
func BuildLeaf(fac filter.Factory, spec DatasetSpec) (*sbt.Leaf, LeafStats, error) {
	if spec.Name == "" {
		return nil, LeafStats{}, fmt.Errorf("ingest: dataset has no name")
	}
	f := fac.New()
	k := int(fac.Ksize())
	distinct := roaring.New()
	stats := LeafStats{Sequences: len(spec.Seqs)}
	for _, seq := range spec.Seqs {
		for _, kmer := range Kmers(seq, k) {
			f.Insert(kmer)
			distinct.Add(uint32(xxh3.HashString(kmer)))
			stats.KmersInserted++
		}
	}
	stats.DistinctKmers = distinct.GetCardinality()
	stats.FillRatio = f.FillRatio()
	stats.FalsePositiveRate = f.EstimateFalsePositiveRate()
	return sbt.NewLeaf(spec.Name, spec.Metadata, f), stats, nil
}

// BuildLeaves builds one leaf per spec across workers goroutines. Filter
// population is the only profitable parallelism during a build — insertion
// into the shared tree is serialized by the tree itself. Results are in
// spec order; the first error aborts the batch.
func BuildLeaves(fac filter.Factory, specs []DatasetSpec, workers int) ([]*sbt.Leaf, []LeafStats, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(specs) {
		workers = len(specs)
	}

	leaves := make([]*sbt.Leaf, len(specs))
	stats := make([]LeafStats, len(specs))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				leaf, st, err := BuildLeaf(fac, specs[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("dataset %q: %w", specs[i].Name, err)
					}
					mu.Unlock()
					continue
				}
				leaves[i] = leaf
				stats[i] = st
			}
		}()
	}
	for i := range specs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return leaves, stats, nil
}
