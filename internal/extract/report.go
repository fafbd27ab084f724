package extract

import (
	"encoding/json"
	"sort"
)

// Report is the final outcome of one extraction call: the merged
// payload, every segment's individual result in segment order, and the
// full usage accounting. It is immutable once built; the caller owns
// any persistence.
type Report struct {
	Success       bool            `json:"success"`
	MergedPayload json.RawMessage `json:"merged_payload"`
	Segments      []SegmentResult `json:"segments"`
	Usage         []UsageRecord   `json:"usage"`
	TotalUsage    UsageTotals     `json:"total_usage"`
	ErrorSummary  string          `json:"error_summary,omitempty"`
}

// NewReport assembles a report from per-segment results (assumed
// complete: one result per segment, in any order) and the usage
// tracker. Success means at least one segment produced usable output;
// partial failure is reported, never hidden.
func NewReport(results []SegmentResult, kind Kind, tracker *Tracker) *Report {
	merged := Merge(results, kind)

	ordered := make([]SegmentResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SegmentIndex < ordered[j].SegmentIndex
	})

	report := &Report{
		Success:       merged != nil,
		MergedPayload: merged,
		Segments:      ordered,
		ErrorSummary:  ErrorSummary(ordered),
	}
	if tracker != nil {
		report.Usage = tracker.Records()
		report.TotalUsage = tracker.Aggregate()
	}
	return report
}
