package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/llmextract/internal/extract"
	"github.com/dgallion1/llmextract/internal/llm"
)

// Outcome pairs a segment index with the raw provider response, or the
// terminal error once the retry budget is exhausted.
type Outcome struct {
	SegmentIndex int
	Response     *llm.Response
	Err          error
}

// Dispatcher fans requests out to the provider under a bounded worker
// pool. Requests are submitted in segment order; completions may arrive
// in any order, so Dispatch re-sorts by segment index before returning.
// A failed segment never aborts its siblings.
type Dispatcher struct {
	Client  llm.Client
	Limit   int // max in-flight calls; 1 = strictly sequential
	Policy  RetryPolicy
	Tracker *extract.Tracker
	Stats   *llm.CallStats
	Log     *slog.Logger

	// OnOutcome, when set, observes each completion as it happens.
	// Called serially from the collecting goroutine.
	OnOutcome func(Outcome)
}

// Dispatch issues one call per request and collects every outcome.
// Cancellation stops submitting new requests; requests never started
// surface as context errors in their outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, reqs []extract.Request) []Outcome {
	limit := d.Limit
	if limit < 1 {
		limit = 1
	}

	results := make(chan Outcome, len(reqs))
	sem := make(chan struct{}, limit)

	for _, req := range reqs {
		select {
		case <-ctx.Done():
			results <- Outcome{SegmentIndex: req.SegmentIndex, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}
		go func(req extract.Request) {
			defer func() { <-sem }()
			results <- d.call(ctx, req)
		}(req)
	}

	outcomes := make([]Outcome, 0, len(reqs))
	for range reqs {
		o := <-results
		if d.OnOutcome != nil {
			d.OnOutcome(o)
		}
		outcomes = append(outcomes, o)
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].SegmentIndex < outcomes[j].SegmentIndex
	})
	return outcomes
}

// call runs one request through the retry policy. Every attempt that
// reports usage contributes its own record, so retried segments show
// multiple records under the same index.
func (d *Dispatcher) call(ctx context.Context, req extract.Request) Outcome {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	policy := d.Policy.withDefaults()

	var resp *llm.Response
	err := retry.Do(
		func() error {
			start := time.Now()
			r, err := d.Client.Complete(ctx, llm.Request{
				Prompt: req.Prompt,
				Params: req.Params,
			})
			if d.Stats != nil {
				d.Stats.Record(time.Since(start))
			}
			if r != nil && r.Usage != nil && d.Tracker != nil {
				d.Tracker.Record(extract.UsageRecord{
					SegmentIndex:     req.SegmentIndex,
					PromptTokens:     r.Usage.PromptTokens,
					CompletionTokens: r.Usage.CompletionTokens,
					TotalTokens:      r.Usage.TotalTokens,
					EstimatedCost:    r.Usage.EstimatedCost,
				})
			}
			if err != nil {
				return err
			}
			resp = r
			return nil
		},
		retry.Attempts(policy.Attempts),
		retry.Delay(policy.BaseDelay),
		retry.MaxDelay(policy.MaxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(policy.BaseDelay/2),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			log.Warn("retrying segment", "segment", req.SegmentIndex, "attempt", attempt+1, "error", err)
		}),
	)
	if err != nil {
		return Outcome{SegmentIndex: req.SegmentIndex, Err: err}
	}
	return Outcome{SegmentIndex: req.SegmentIndex, Response: resp}
}
