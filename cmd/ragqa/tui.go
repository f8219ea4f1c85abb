package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragqa/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	p, closeCache, err := buildPipeline(context.Background(), cfg)
	defer closeCache()
	if err != nil {
		return err
	}
	m := tui.New(p, secs(cfg.Generator.TimeoutSecs), tui.DefaultExamples)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
