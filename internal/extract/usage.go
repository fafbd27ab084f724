package extract

import "sync"

// Tracker accumulates per-call usage records. It is the only mutable
// state shared across dispatch workers, so appends are serialized with
// a mutex; everything else in the pipeline is exclusively owned.
type Tracker struct {
	mu      sync.Mutex
	records []UsageRecord
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends one usage record. Safe for concurrent use.
func (t *Tracker) Record(r UsageRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, r)
}

// Records returns a copy of all recorded usage, in recording order.
func (t *Tracker) Records() []UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]UsageRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Aggregate folds all records into totals. Providers that omitted
// usage contribute zeroes, which is treated as unknown, not an error.
func (t *Tracker) Aggregate() UsageTotals {
	t.mu.Lock()
	defer t.mu.Unlock()

	var totals UsageTotals
	for _, r := range t.records {
		totals.PromptTokens += r.PromptTokens
		totals.CompletionTokens += r.CompletionTokens
		totals.TotalTokens += r.TotalTokens
		totals.EstimatedCost += r.EstimatedCost
		totals.CallCount++
	}
	return totals
}
