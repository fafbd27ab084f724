package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/llmextract/internal/chunker"
	"github.com/dgallion1/llmextract/internal/config"
	"github.com/dgallion1/llmextract/internal/document"
	"github.com/dgallion1/llmextract/internal/extract"
	"github.com/dgallion1/llmextract/internal/pipeline"
)

// chunkOverrides are per-request chunking knobs. Absent fields fall
// back to the service defaults.
type chunkOverrides struct {
	ChunkTokenThreshold *int     `json:"chunk_token_threshold,omitempty"`
	OverlapRate         *float64 `json:"overlap_rate,omitempty"`
	WordTokenRate       *float64 `json:"word_token_rate,omitempty"`
	ApplyChunking       *bool    `json:"apply_chunking,omitempty"`
}

type extractRequest struct {
	Text        string          `json:"text"`
	Title       string          `json:"title,omitempty"`
	ContentType string          `json:"content_type,omitempty"`
	Instruction string          `json:"instruction"`
	Schema      json.RawMessage `json:"schema,omitempty"`
	Kind        string          `json:"kind,omitempty"`
	Chunking    chunkOverrides  `json:"chunking"`
	Concurrency *int            `json:"concurrency,omitempty"`
	MaxRetries  *int            `json:"max_retries,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

// buildOptions merges a request with the configured defaults.
func buildOptions(cfg config.Config, req *extractRequest) pipeline.Options {
	chunking := chunker.Config{
		ChunkTokenThreshold: cfg.ChunkTokenThreshold,
		OverlapRate:         cfg.OverlapRate,
		WordTokenRate:       cfg.WordTokenRate,
		ApplyChunking:       cfg.ApplyChunking,
	}
	if v := req.Chunking.ChunkTokenThreshold; v != nil {
		chunking.ChunkTokenThreshold = *v
	}
	if v := req.Chunking.OverlapRate; v != nil {
		chunking.OverlapRate = *v
	}
	if v := req.Chunking.WordTokenRate; v != nil {
		chunking.WordTokenRate = *v
	}
	if v := req.Chunking.ApplyChunking; v != nil {
		chunking.ApplyChunking = *v
	}

	opts := pipeline.Options{
		Instruction: req.Instruction,
		Schema:      req.Schema,
		Kind:        extract.Kind(req.Kind),
		Chunking:    chunking,
		Concurrency: cfg.ConcurrencyLimit,
		Retry: pipeline.RetryPolicy{
			Attempts:  uint(cfg.MaxRetries),
			BaseDelay: cfg.RetryBaseDelay,
		},
	}
	if req.Concurrency != nil {
		opts.Concurrency = *req.Concurrency
	}
	if req.MaxRetries != nil && *req.MaxRetries > 0 {
		opts.Retry.Attempts = uint(*req.MaxRetries)
	}
	if req.MaxTokens != nil {
		opts.Params.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		opts.Params.Temperature = *req.Temperature
	}
	return opts
}

// handleExtract runs an extraction synchronously over inline text.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	contentType, err := document.ParseContentType(req.ContentType)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc := &document.Document{
		Title:       req.Title,
		Text:        req.Text,
		ContentType: contentType,
	}

	report, err := s.pipe.Run(r.Context(), doc, buildOptions(s.cfg, &req))
	if err != nil {
		if errors.Is(err, pipeline.ErrBadOptions) || errors.Is(err, chunker.ErrBadConfig) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
