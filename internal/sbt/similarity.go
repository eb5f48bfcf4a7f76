package sbt

import (
	"math/bits"
	"math/rand"

	"github.com/agentic-research/sbtree/internal/filter"
)

// Similarity estimates how alike two filters' raw bit content is by
// sampling byte positions with replacement: for each of samples positions
// per table, all 8 bits of the two filters' bytes are compared pairwise and
// agreeing bits counted. The result is the agreeing fraction in [0,1] —
// identical filters score 1.
//
// rng drives the position sampling; pass a seeded generator for
// reproducible estimates, or nil for an unseeded one. Returns
// filter.ErrStructuralMismatch unless the filters share the same geometry.
func Similarity(a, b *filter.Filter, samples int, rng *rand.Rand) (float64, error) {
	if !a.Compatible(b) {
		return 0, filter.ErrStructuralMismatch
	}
	if samples <= 0 {
		samples = 1000
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	agree := 0
	for t := 0; t < a.NumTables(); t++ {
		ta, tb := a.Table(t), b.Table(t)
		for s := 0; s < samples; s++ {
			i := rng.Intn(len(ta))
			agree += bits.OnesCount8(^(ta[i] ^ tb[i]))
		}
	}
	return float64(agree) / (8 * float64(a.NumTables()) * float64(samples)), nil
}
