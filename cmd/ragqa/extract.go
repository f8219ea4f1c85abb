package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragqa/internal/corpus"
)

var extractCmd = &cobra.Command{
	Use:   "extract <squad.json> <passages.txt>",
	Short: "Convert a SQuAD v1.1 file into a passage file",
	Args:  cobra.ExactArgs(2),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()
	passages, err := corpus.ExtractSQuAD(in)
	if err != nil {
		return err
	}
	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := corpus.WritePassages(out, passages); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", args[1], err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d context paragraphs. Saved to %s\n", len(passages), args[1])
	return nil
}
