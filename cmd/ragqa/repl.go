package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ragqa/internal/domain"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Answer questions read line by line from stdin",
	Long:  `Reads one question per line until end of input or until "exit" or "quit" is entered.`,
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().BoolVarP(&showSources, "sources", "s", false, "Print the retrieved chunks with their scores")
}

func runREPL(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	p, closeCache, err := buildPipeline(ctx, cfg, progressOption())
	defer closeCache()
	if err != nil {
		return err
	}
	if err := initialize(ctx, p); err != nil {
		return err
	}
	return repl(ctx, p, cmd.InOrStdin(), cmd.OutOrStdout(), secs(cfg.Generator.TimeoutSecs))
}

type asker interface {
	Ask(ctx context.Context, query string) (*domain.Answer, error)
}

// repl answers each input line. Per-question errors are printed and the
// session continues.
func repl(ctx context.Context, qa asker, in io.Reader, out io.Writer, timeout time.Duration) error {
	fmt.Fprintln(out, "Ready. Type 'exit' to quit.")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nEnter question: ")
		if !sc.Scan() {
			break
		}
		q := strings.TrimSpace(sc.Text())
		switch strings.ToLower(q) {
		case "exit", "quit":
			fmt.Fprintln(out, "Session ended.")
			return nil
		case "":
			continue
		}
		qctx, cancel := context.WithTimeout(ctx, timeout)
		ans, err := qa.Ask(qctx, q)
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out)
		printAnswer(out, ans, showSources)
	}
	return sc.Err()
}
