// Package pipeline orchestrates the chunk-dispatch-merge flow: split a
// document into segments, issue one provider call per segment under a
// concurrency limit, parse the heterogeneous responses, and merge them
// back into a single report with full usage accounting.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/llmextract/internal/chunker"
	"github.com/dgallion1/llmextract/internal/document"
	"github.com/dgallion1/llmextract/internal/extract"
	"github.com/dgallion1/llmextract/internal/llm"
)

// ErrBadOptions marks extraction options rejected before any provider
// call is made.
var ErrBadOptions = errors.New("invalid extraction options")

// Options configures one extraction run.
type Options struct {
	Instruction string
	Schema      json.RawMessage
	Kind        extract.Kind
	Chunking    chunker.Config
	Concurrency int
	Retry       RetryPolicy
	Params      llm.Params

	// Progress hooks, both optional. OnPlan fires once after chunking
	// with the total segment count; OnSegmentDone fires per completed
	// segment (serially).
	OnPlan        func(totalSegments int)
	OnSegmentDone func(segmentIndex int, err error)
}

// Validate rejects unusable options. Concurrency and retry settings
// are normalized at run time instead; only genuinely contradictory
// values fail.
func (o *Options) Validate() error {
	if o.Instruction == "" {
		return fmt.Errorf("%w: instruction is required", ErrBadOptions)
	}
	if _, err := extract.ParseKind(string(o.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrBadOptions, err)
	}
	if err := o.Chunking.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadOptions, err)
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must be >= 0, got %d", ErrBadOptions, o.Concurrency)
	}
	return nil
}

// Pipeline runs extractions against a single provider client.
type Pipeline struct {
	client llm.Client
	stats  *llm.CallStats
	log    *slog.Logger
}

func New(client llm.Client, stats *llm.CallStats, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		client: client,
		stats:  stats,
		log:    log,
	}
}

// Run executes one extraction call end to end. Configuration errors
// fail before any provider call; everything past that point degrades
// per segment and is reported, never raised. The returned report is
// complete: one result per segment, in segment order.
func (p *Pipeline) Run(ctx context.Context, doc *document.Document, opts Options) (*extract.Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	kind, _ := extract.ParseKind(string(opts.Kind))
	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = 1
	}

	segments, err := chunker.Split(doc, opts.Chunking)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadOptions, err)
	}
	if opts.OnPlan != nil {
		opts.OnPlan(len(segments))
	}
	p.log.Info("dispatching segments",
		"segments", len(segments),
		"concurrency", concurrency,
		"kind", kind,
	)

	requests := extract.BuildRequests(segments, opts.Instruction, opts.Schema, kind, opts.Params)
	tracker := extract.NewTracker()

	dispatcher := &Dispatcher{
		Client:  p.client,
		Limit:   concurrency,
		Policy:  opts.Retry,
		Tracker: tracker,
		Stats:   p.stats,
		Log:     p.log,
	}
	if opts.OnSegmentDone != nil {
		dispatcher.OnOutcome = func(o Outcome) {
			opts.OnSegmentDone(o.SegmentIndex, o.Err)
		}
	}

	outcomes := dispatcher.Dispatch(ctx, requests)

	results := make([]extract.SegmentResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			detail := o.Err.Error()
			if errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded) {
				detail = "cancelled before completion: " + detail
			}
			results = append(results, extract.SegmentResult{
				SegmentIndex: o.SegmentIndex,
				Status:       extract.StatusProviderError,
				ErrorDetail:  detail,
			})
			continue
		}
		results = append(results, extract.ParseResponse(o.SegmentIndex, o.Response.Text, kind, opts.Schema))
	}

	report := extract.NewReport(results, kind, tracker)
	p.log.Info("extraction complete",
		"segments", len(segments),
		"success", report.Success,
		"calls", report.TotalUsage.CallCount,
		"total_tokens", report.TotalUsage.TotalTokens,
	)
	return report, nil
}
