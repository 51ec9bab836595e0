package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"semsearch/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [inputs...]",
	Short: "Interactive search (default command)",
	Long: `Interactive search.

Type a query and press Enter; up/down browse the results. Type "exit" or
press Ctrl-C to quit.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.open(ctx, args, rebuild)
	if err != nil {
		return err
	}
	m := tui.New(ctx, a.svc, summary, a.cfg.Query.TopK)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
