// Package extract holds the per-segment extraction model: prompt
// construction, response parsing, result merging and usage accounting.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/llmextract/internal/llm"
)

// Kind selects schema-guided JSON extraction versus freeform blocks.
type Kind string

const (
	KindSchema Kind = "schema"
	KindBlock  Kind = "block"
)

// ParseKind validates a kind string; empty defaults to schema.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSchema, KindBlock:
		return Kind(s), nil
	case "":
		return KindSchema, nil
	}
	return "", fmt.Errorf("unknown extraction kind: %q", s)
}

// Status classifies the outcome of one segment.
type Status string

const (
	StatusOK            Status = "ok"
	StatusParseError    Status = "parse_error"
	StatusProviderError Status = "provider_error"
)

// SegmentResult is the parsed outcome for one segment. Failures keep
// the offending raw text in ErrorDetail so callers can diagnose them;
// they never abort sibling segments.
type SegmentResult struct {
	SegmentIndex int             `json:"segment_index"`
	Status       Status          `json:"status"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Warning      string          `json:"warning,omitempty"`
	ErrorDetail  string          `json:"error_detail,omitempty"`
}

// Request is one prompt ready for dispatch. It is owned exclusively by
// the dispatcher for the duration of a single call.
type Request struct {
	SegmentIndex int
	Prompt       string
	Params       llm.Params
}

// UsageRecord is the accounting for one completed call attempt.
// Retried segments produce multiple records with the same index.
type UsageRecord struct {
	SegmentIndex     int     `json:"segment_index"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost,omitempty"`
}

// UsageTotals is the aggregate over all recorded calls.
type UsageTotals struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
	CallCount        int     `json:"call_count"`
}
