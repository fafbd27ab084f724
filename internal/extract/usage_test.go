package extract

import (
	"sync"
	"testing"
)

func TestTrackerAggregateMatchesSum(t *testing.T) {
	tracker := NewTracker()
	records := []UsageRecord{
		{SegmentIndex: 0, PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120, EstimatedCost: 0.001},
		{SegmentIndex: 1, PromptTokens: 90, CompletionTokens: 35, TotalTokens: 125, EstimatedCost: 0.002},
		// Retried segment: second record for index 1.
		{SegmentIndex: 1, PromptTokens: 90, CompletionTokens: 40, TotalTokens: 130, EstimatedCost: 0.002},
		// Provider that reported nothing.
		{SegmentIndex: 2},
	}
	for _, r := range records {
		tracker.Record(r)
	}

	var wantTotal, wantPrompt, wantCompletion int
	var wantCost float64
	for _, r := range records {
		wantTotal += r.TotalTokens
		wantPrompt += r.PromptTokens
		wantCompletion += r.CompletionTokens
		wantCost += r.EstimatedCost
	}

	agg := tracker.Aggregate()
	if agg.TotalTokens != wantTotal {
		t.Errorf("total tokens: expected %d, got %d", wantTotal, agg.TotalTokens)
	}
	if agg.PromptTokens != wantPrompt {
		t.Errorf("prompt tokens: expected %d, got %d", wantPrompt, agg.PromptTokens)
	}
	if agg.CompletionTokens != wantCompletion {
		t.Errorf("completion tokens: expected %d, got %d", wantCompletion, agg.CompletionTokens)
	}
	if agg.EstimatedCost != wantCost {
		t.Errorf("cost: expected %g, got %g", wantCost, agg.EstimatedCost)
	}
	if agg.CallCount != len(records) {
		t.Errorf("call count: expected %d, got %d", len(records), agg.CallCount)
	}
}

func TestTrackerEmptyAggregate(t *testing.T) {
	agg := NewTracker().Aggregate()
	if agg.CallCount != 0 || agg.TotalTokens != 0 || agg.EstimatedCost != 0 {
		t.Errorf("expected zero aggregate, got %+v", agg)
	}
}

func TestTrackerConcurrentAppend(t *testing.T) {
	tracker := NewTracker()
	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tracker.Record(UsageRecord{SegmentIndex: w, TotalTokens: 1})
			}
		}(w)
	}
	wg.Wait()

	agg := tracker.Aggregate()
	if agg.CallCount != workers*perWorker {
		t.Errorf("expected %d records, got %d", workers*perWorker, agg.CallCount)
	}
	if agg.TotalTokens != workers*perWorker {
		t.Errorf("expected %d total tokens, got %d", workers*perWorker, agg.TotalTokens)
	}
}

func TestTrackerRecordsReturnsCopy(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(UsageRecord{SegmentIndex: 0, TotalTokens: 10})

	records := tracker.Records()
	records[0].TotalTokens = 999

	if got := tracker.Records()[0].TotalTokens; got != 10 {
		t.Errorf("internal records mutated through copy: %d", got)
	}
}
