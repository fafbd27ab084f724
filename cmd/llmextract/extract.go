package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/llmextract/internal/chunker"
	"github.com/dgallion1/llmextract/internal/config"
	"github.com/dgallion1/llmextract/internal/extract"
	"github.com/dgallion1/llmextract/internal/llm"
	"github.com/dgallion1/llmextract/internal/parser"
	"github.com/dgallion1/llmextract/internal/pipeline"
)

var (
	extractInstruction string
	extractSchemaPath  string
	extractKind        string
	extractConcurrency int
	extractNoChunking  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Run a one-shot extraction over a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		cfg := config.Load()
		if cfg.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
		if extractInstruction == "" {
			return fmt.Errorf("--instruction is required")
		}

		var schema json.RawMessage
		if extractSchemaPath != "" {
			data, err := os.ReadFile(extractSchemaPath)
			if err != nil {
				return fmt.Errorf("read schema: %w", err)
			}
			schema = data
		}

		path := args[0]
		p, err := parser.ForFile(path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		doc, err := p.Parse(f, path)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		client := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel,
			llm.WithPricing(cfg.InputCostPerMTok, cfg.OutputCostPerMTok))
		defer client.Close()

		concurrency := cfg.ConcurrencyLimit
		if extractConcurrency > 0 {
			concurrency = extractConcurrency
		}
		opts := pipeline.Options{
			Instruction: extractInstruction,
			Schema:      schema,
			Kind:        extract.Kind(extractKind),
			Chunking: chunker.Config{
				ChunkTokenThreshold: cfg.ChunkTokenThreshold,
				OverlapRate:         cfg.OverlapRate,
				WordTokenRate:       cfg.WordTokenRate,
				ApplyChunking:       !extractNoChunking && cfg.ApplyChunking,
			},
			Concurrency: concurrency,
			Retry: pipeline.RetryPolicy{
				Attempts:  uint(cfg.MaxRetries),
				BaseDelay: cfg.RetryBaseDelay,
			},
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
		defer cancel()

		report, err := pipeline.New(client, nil, log).Run(ctx, doc, opts)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractInstruction, "instruction", "i", "", "extraction instruction")
	extractCmd.Flags().StringVar(&extractSchemaPath, "schema", "", "path to a JSON schema for the extracted records")
	extractCmd.Flags().StringVar(&extractKind, "kind", "schema", "extraction kind: schema or block")
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 0, "max concurrent model calls (0 = service default)")
	extractCmd.Flags().BoolVar(&extractNoChunking, "no-chunking", false, "send the whole document as one segment")
}
