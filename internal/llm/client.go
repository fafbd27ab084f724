// Package llm defines the single-call boundary to an LLM provider.
// The pipeline depends only on the Client contract: one prompt in,
// text plus optional usage out, or an error. Provider resolution,
// credentials and wire formats stay behind this boundary.
package llm

import (
	"context"
	"fmt"
)

// Params are the generation parameters forwarded with each request.
type Params struct {
	MaxTokens   int
	Temperature float64
}

// Request is a single completion request.
type Request struct {
	Prompt string
	System string
	Params Params
}

// Usage is the token/cost accounting a provider reports for one call.
// Providers that report nothing leave fields at zero; that is treated
// as unknown, never as an error.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost,omitempty"`
}

// Response is the raw provider output, opaque until parsed downstream.
type Response struct {
	Text  string
	Usage *Usage // nil when the provider reported no usage
}

// Client is the injected model-call capability.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
	Close()
}

// RetryableError indicates a transient provider failure (rate limit,
// server-side error) that is worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
