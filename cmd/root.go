package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "sbtree",
	Short:        "Sequence bloom tree indexing and search",
	Long:         "sbtree indexes sequence datasets into a sequence bloom tree so a query\nsequence can be tested for approximate containment against every dataset\nwithout scanning each dataset's full k-mer set.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
