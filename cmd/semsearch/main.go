// Command semsearch answers free-text queries over a static corpus by
// semantic similarity.
//
// Usage:
//
//	semsearch [flags] [inputs...]          interactive search (same as tui)
//	semsearch index [inputs...]            re-ingest inputs and save the snapshot
//	semsearch search [--top-k N] QUERY     print the closest records
//
// Inputs are .csv files (one record per row) or .txt files (sentence
// chunks). Without inputs the list in the config file is used.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
