package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Time-weighted retrieval memory for AI agents",
	Long:  "Recall keeps an embedded document collection where retrieval blends semantic similarity with recency: documents you keep pulling back stay fresh, neglected ones decay.",
}

// Persistent flags shared by all commands.
var (
	flagConfig string
	flagDB     string
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.recall/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database file (default ~/.recall/recall.db)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
}
