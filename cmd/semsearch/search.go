package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchTopK   int
	searchInputs []string
)

var searchCmd = &cobra.Command{
	Use:   "search [flags] QUERY",
	Short: "Print the records closest to QUERY",
	Long: `Print the records closest to QUERY, nearest first, one per line as
"text - distance".

Examples:
  semsearch search "when did the event happen"
  semsearch search --top-k 5 --input fields.csv "agent name"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.open(cmd.Context(), searchInputs, rebuild); err != nil {
			return err
		}
		k := searchTopK
		if k <= 0 {
			k = a.cfg.Query.TopK
		}
		results, err := a.svc.Query(cmd.Context(), strings.Join(args, " "), k)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range results {
			fmt.Fprintf(out, "%s - %v\n", r.Text, r.Distance)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "Number of results (default query.top_k from config)")
	searchCmd.Flags().StringArrayVarP(&searchInputs, "input", "i", nil, "Input file or glob; repeatable (default ingest.inputs from config)")
	rootCmd.AddCommand(searchCmd)
}
