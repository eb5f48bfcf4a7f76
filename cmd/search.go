package cmd

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sbtree/internal/ingest"
	"github.com/agentic-research/sbtree/internal/sbt"
)

var (
	searchThreshold float64
	searchFasta     bool
)

func init() {
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0.8, "fraction of query k-mers that must be present")
	searchCmd.Flags().BoolVar(&searchFasta, "fasta", false, "treat the query argument as a FASTA file of query sequences")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <tree.sbt.json> <sequence>",
	Short: "Search a saved tree for datasets approximately containing a query sequence",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docPath, query := args[0], args[1]

		tree, err := sbt.Load(osfs.New("."), docPath)
		if err != nil {
			return err
		}

		queries := []ingest.Record{{Header: "query", Seq: query}}
		if searchFasta {
			f, err := os.Open(query)
			if err != nil {
				return fmt.Errorf("open query file %s: %w", query, err)
			}
			queries, err = ingest.ReadFasta(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("parse query file %s: %w", query, err)
			}
		}

		for _, q := range queries {
			matches := tree.Find(sbt.Containment(q.Seq, searchThreshold))
			fmt.Printf("%s: %d match(es)\n", q.Header, len(matches))
			for _, leaf := range matches {
				if md := leaf.Metadata(); md != nil {
					fmt.Printf("  %s\t%v\n", leaf.Name(), md)
				} else {
					fmt.Printf("  %s\n", leaf.Name())
				}
			}
		}
		return nil
	},
}
