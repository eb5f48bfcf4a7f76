package cmd

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/sbtree/internal/sbt"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <tree.sbt.json>",
	Short: "Print a saved tree's topology and per-node filter diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := sbt.Load(osfs.New("."), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("size: %d  ksize: %d  tables: %v\n",
			tree.Size(), tree.Factory().Ksize(), tree.Factory().TableSizes())
		tree.Walk(func(depth int, it sbt.Item) {
			indent := strings.Repeat("  ", depth)
			f := it.Filter()
			switch v := it.(type) {
			case *sbt.Leaf:
				fmt.Printf("%s**Leaf:%s [%d,%.6f] %v\n",
					indent, v.Name(), f.Occupied(), f.EstimateFalsePositiveRate(), v.Metadata())
			default:
				fmt.Printf("%s*Node:%s [%d,%.6f] weight=%d\n",
					indent, it.Name(), f.Occupied(), f.EstimateFalsePositiveRate(), it.Weight())
			}
		})
		return nil
	},
}
