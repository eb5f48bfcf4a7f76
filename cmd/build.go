package cmd

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sbtree/internal/filter"
	"github.com/agentic-research/sbtree/internal/ingest"
	"github.com/agentic-research/sbtree/internal/sbt"
)

var (
	buildKsize      uint32
	buildTableSizes string
	buildSeed       int64
	buildWorkers    int
	buildCatalog    string
)

func init() {
	buildCmd.Flags().Uint32Var(&buildKsize, "ksize", 5, "k-mer length")
	buildCmd.Flags().StringVar(&buildTableSizes, "tablesizes", "100003,100019,100043", "comma-separated filter table sizes in bits")
	buildCmd.Flags().Int64Var(&buildSeed, "seed", 0, "seed for the insertion tie-break (0 = unseeded)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "parallel dataset ingestion workers (0 = NumCPU)")
	buildCmd.Flags().StringVar(&buildCatalog, "catalog", "", "record ingested datasets in this SQLite database")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build <tag> <fasta>...",
	Short: "Build a sequence bloom tree from FASTA datasets and save it under a tag",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, files := args[0], args[1:]

		sizes, err := parseTableSizes(buildTableSizes)
		if err != nil {
			return err
		}
		fac, err := filter.NewFactory(buildKsize, sizes)
		if err != nil {
			return err
		}

		specs := make([]ingest.DatasetSpec, 0, len(files))
		for _, path := range files {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open dataset %s: %w", path, err)
			}
			records, err := ingest.ReadFasta(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("parse dataset %s: %w", path, err)
			}
			seqs := make([]string, len(records))
			for i, r := range records {
				seqs[i] = r.Seq
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			specs = append(specs, ingest.DatasetSpec{Name: name, Metadata: path, Seqs: seqs})
		}

		log.Printf("building %d leaves", len(specs))
		leaves, stats, err := ingest.BuildLeaves(fac, specs, buildWorkers)
		if err != nil {
			return err
		}

		var rng *rand.Rand
		if buildSeed != 0 {
			rng = rand.New(rand.NewSource(buildSeed))
		}
		tree := sbt.New(fac, rng)
		for i, leaf := range leaves {
			if err := tree.Insert(leaf); err != nil {
				return err
			}
			log.Printf("inserted %s (%d k-mers, fill %.4f, fp %.6f)",
				leaf.Name(), stats[i].KmersInserted, stats[i].FillRatio, stats[i].FalsePositiveRate)
		}

		if buildCatalog != "" {
			cat, err := ingest.OpenCatalog(buildCatalog)
			if err != nil {
				return err
			}
			defer func() { _ = cat.Close() }()
			for i, spec := range specs {
				if err := cat.Record(spec.Name, files[i], stats[i]); err != nil {
					return err
				}
			}
		}

		path, err := sbt.Save(osfs.New("."), tree, tag)
		if err != nil {
			return err
		}
		log.Printf("saved %d nodes to %s", tree.Size(), path)
		fmt.Println(path)
		return nil
	},
}

func parseTableSizes(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	sizes := make([]uint64, 0, len(parts))
	for _, p := range parts {
		m, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad table size %q: %w", p, err)
		}
		sizes = append(sizes, m)
	}
	return sizes, nil
}
