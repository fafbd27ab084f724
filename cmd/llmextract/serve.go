package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/llmextract/internal/api"
	"github.com/dgallion1/llmextract/internal/callback"
	"github.com/dgallion1/llmextract/internal/config"
	"github.com/dgallion1/llmextract/internal/llm"
	"github.com/dgallion1/llmextract/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			log.Error("invalid configuration", "error", err)
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Initialize clients.
		client := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel,
			llm.WithPricing(cfg.InputCostPerMTok, cfg.OutputCostPerMTok))
		stats := llm.NewCallStats(time.Hour)

		var cb *callback.Client
		if cfg.CallbackURL != "" {
			cb = callback.NewClient(cfg.CallbackURL, cfg.CallbackAPIKey)
		}

		// Initialize pipeline.
		pipe := pipeline.New(client, stats, log)
		orch := pipeline.NewOrchestrator(cfg, pipe, cb, log)
		orch.Start(ctx)

		// Initialize HTTP server.
		srv := api.NewServer(orch, pipe, client, stats, log, cfg)

		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			log.Info("shutting down...")

			orch.Stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)

			client.Close()
			if cb != nil {
				cb.Close()
			}
		}()

		log.Info("starting llmextract", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	},
}
