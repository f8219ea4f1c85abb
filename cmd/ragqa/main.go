package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragqa/internal/config"
	"ragqa/internal/log"
)

var (
	cfgPath  string
	logLevel string
	cfg      *config.AppConfig
	flushLog = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "ragqa",
	Short: "Answer questions from a fixed text corpus",
	Long: `ragqa loads a text corpus, splits it into chunks, indexes the chunks by
embedding and answers questions with the most similar chunks as context.

Without a subcommand the interactive terminal UI is started.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { flushLog() },
	RunE:              runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/ragqa/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

func setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	// the TUI owns the terminal; logs go to a file or nowhere
	if !cmd.HasParent() || cmd.Name() == "tui" {
		if len(cfg.Log.OutputPaths) == 0 {
			log.Discard()
			return nil
		}
	}
	flush, err := log.Setup(log.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return err
	}
	flushLog = flush
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
