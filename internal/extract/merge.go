package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// blockItem tags a freeform payload with its segment index. Block
// content is not guaranteed to share a schema, so block merges keep
// per-segment payloads separate instead of flattening them.
type blockItem struct {
	SegmentIndex int             `json:"segment_index"`
	Content      json.RawMessage `json:"content"`
}

// Merge concatenates successful per-segment payloads in ascending
// segment-index order, regardless of the order results arrived in.
// Schema-kind array payloads are concatenated element-wise; duplicate
// entities across overlapping chunks are deliberately kept (dedup is a
// caller-side concern). Returns nil when no segment succeeded.
func Merge(results []SegmentResult, kind Kind) json.RawMessage {
	sorted := make([]SegmentResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SegmentIndex < sorted[j].SegmentIndex
	})

	if kind == KindBlock {
		return mergeBlocks(sorted)
	}
	return mergeArrays(sorted)
}

func mergeArrays(sorted []SegmentResult) json.RawMessage {
	merged := make([]json.RawMessage, 0)
	succeeded := false
	for _, r := range sorted {
		if r.Status != StatusOK || len(r.Payload) == 0 {
			continue
		}
		succeeded = true

		var items []json.RawMessage
		if err := json.Unmarshal(r.Payload, &items); err == nil {
			merged = append(merged, items...)
			continue
		}
		// Non-array payload from a lenient parse: keep it as one element.
		merged = append(merged, r.Payload)
	}
	if !succeeded {
		return nil
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil
	}
	return out
}

func mergeBlocks(sorted []SegmentResult) json.RawMessage {
	items := make([]blockItem, 0)
	for _, r := range sorted {
		if r.Status != StatusOK || len(r.Payload) == 0 {
			continue
		}
		items = append(items, blockItem{
			SegmentIndex: r.SegmentIndex,
			Content:      r.Payload,
		})
	}
	if len(items) == 0 {
		return nil
	}
	out, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return out
}

// ErrorSummary builds a human-readable summary from failed segments.
func ErrorSummary(results []SegmentResult) string {
	var parts []string
	for _, r := range results {
		if r.Status == StatusOK {
			continue
		}
		parts = append(parts, fmt.Sprintf("segment %d (%s): %s", r.SegmentIndex, r.Status, r.ErrorDetail))
	}
	return strings.Join(parts, "; ")
}
