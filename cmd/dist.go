package cmd

import (
	"fmt"
	"math/rand"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sbtree/internal/sbt"
)

var (
	distSamples int
	distSeed    int64
)

func init() {
	distCmd.Flags().IntVar(&distSamples, "samples", 1000, "byte positions to sample per table")
	distCmd.Flags().Int64Var(&distSeed, "seed", 0, "seed for position sampling (0 = unseeded)")
	rootCmd.AddCommand(distCmd)
}

var distCmd = &cobra.Command{
	Use:   "dist <tree.sbt.json> <dataset-a> <dataset-b>",
	Short: "Estimate the bit-level similarity of two datasets' filters",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := sbt.Load(osfs.New("."), args[0])
		if err != nil {
			return err
		}
		a := tree.LeafByName(args[1])
		if a == nil {
			return fmt.Errorf("no dataset %q in tree", args[1])
		}
		b := tree.LeafByName(args[2])
		if b == nil {
			return fmt.Errorf("no dataset %q in tree", args[2])
		}

		var rng *rand.Rand
		if distSeed != 0 {
			rng = rand.New(rand.NewSource(distSeed))
		}
		sim, err := sbt.Similarity(a.Filter(), b.Filter(), distSamples, rng)
		if err != nil {
			return err
		}
		fmt.Printf("%s ~ %s: %.6f\n", a.Name(), b.Name(), sim)
		return nil
	},
}
