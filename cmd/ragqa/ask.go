package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ragqa/internal/domain"
)

var showSources bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Print the retrieved chunks with their scores")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, closeCache, err := buildPipeline(ctx, cfg, progressOption())
	defer closeCache()
	if err != nil {
		return err
	}
	if err := initialize(ctx, p); err != nil {
		return err
	}
	qctx, cancel := context.WithTimeout(ctx, secs(cfg.Generator.TimeoutSecs))
	defer cancel()
	ans, err := p.Ask(qctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printAnswer(cmd.OutOrStdout(), ans, showSources)
	return nil
}

func printAnswer(w io.Writer, ans *domain.Answer, sources bool) {
	if ans.NoAnswer() {
		fmt.Fprintln(w, "No answer found in the corpus.")
		if ans.Text != "" {
			fmt.Fprintf(w, "(model said: %s)\n", ans.Text)
		}
	} else {
		fmt.Fprintf(w, "Answer:\n%s\n", ans.Text)
	}
	if !sources {
		return
	}
	for i, s := range ans.Sources {
		fmt.Fprintf(w, "\n[%d] %s score=%.3f\n%s\n", i+1, s.Chunk.ChunkID, s.Score, s.Chunk.Text)
	}
}
