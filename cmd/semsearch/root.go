package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	rebuild    bool
)

var rootCmd = &cobra.Command{
	Use:   "semsearch [inputs...]",
	Short: "Semantic nearest-neighbour search over a text corpus",
	Long: `Semantic nearest-neighbour search over a text corpus.

Records are embedded once and cached in a snapshot; later runs reload the
snapshot and only rebuild the search forest. Without a subcommand the
interactive UI starts.

Examples:
  semsearch "ECS fields.csv"
  semsearch search --top-k 5 "source ip address"
  semsearch index --config config.yaml docs/*.txt`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (default ./config.yaml or ~/.config/semsearch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&rebuild, "rebuild", false, "Ignore an existing snapshot and re-embed the inputs")
}
