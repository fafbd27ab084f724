package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "llmextract",
	Short: "Structured extraction from documents via LLM calls",
	Long: `llmextract splits documents into overlapping segments, runs one
model call per segment under a concurrency limit, and merges the
per-segment results into a single structured report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
