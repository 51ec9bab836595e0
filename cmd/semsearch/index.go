package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [inputs...]",
	Short: "Ingest inputs, save the snapshot and build the index",
	Long: `Ingest inputs, compute embeddings and save the snapshot.

The snapshot is always rewritten. Inputs default to ingest.inputs from the
config file.

Examples:
  semsearch index "ECS fields.csv"
  semsearch index --config config.yaml docs/*.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.open(cmd.Context(), args, true)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
