package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseResponse converts one raw provider response into a SegmentResult.
// It never fails hard: unparseable content degrades to StatusParseError
// with the raw text preserved in ErrorDetail for diagnostics.
func ParseResponse(segmentIndex int, text string, kind Kind, schema json.RawMessage) SegmentResult {
	if kind == KindBlock {
		return parseBlock(segmentIndex, text)
	}
	return parseSchema(segmentIndex, text, schema)
}

func parseSchema(segmentIndex int, text string, schema json.RawMessage) SegmentResult {
	payload, err := decodeJSON(text)
	if err != nil {
		return SegmentResult{
			SegmentIndex: segmentIndex,
			Status:       StatusParseError,
			ErrorDetail:  fmt.Sprintf("%s (raw: %s)", err, truncate(text, 500)),
		}
	}

	result := SegmentResult{
		SegmentIndex: segmentIndex,
		Status:       StatusOK,
		Payload:      payload,
	}

	// Shape validation is advisory: best-effort parsed content beats
	// discarding it, so a mismatch is recorded as a warning only.
	if len(schema) > 0 {
		if err := validateAgainstSchema(schema, payload); err != nil {
			result.Warning = fmt.Sprintf("schema validation: %s", truncate(err.Error(), 300))
		}
	}
	return result
}

// parseBlock wraps freeform text as-is. It opportunistically keeps the
// response as structured JSON when the whole body parses, but never
// fails when it does not.
func parseBlock(segmentIndex int, text string) SegmentResult {
	trimmed := strings.TrimSpace(stripCodeBlock(text))

	if json.Valid([]byte(trimmed)) && looksLikeJSON(trimmed) {
		return SegmentResult{
			SegmentIndex: segmentIndex,
			Status:       StatusOK,
			Payload:      json.RawMessage(trimmed),
		}
	}

	payload, _ := json.Marshal(text)
	return SegmentResult{
		SegmentIndex: segmentIndex,
		Status:       StatusOK,
		Payload:      payload,
	}
}

// decodeJSON tries a strict parse first, then progressively salvages:
// strip markdown code fences, then take the largest bracket-delimited
// substring. The parsed value is re-marshaled so payloads are always
// normalized JSON.
func decodeJSON(text string) (json.RawMessage, error) {
	candidates := []string{strings.TrimSpace(text)}
	if stripped := stripCodeBlock(text); stripped != candidates[0] {
		candidates = append(candidates, stripped)
	}
	if salvaged := largestJSONCandidate(text); salvaged != "" {
		candidates = append(candidates, salvaged)
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			continue
		}
		normalized, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("normalize payload: %w", err)
		}
		return normalized, nil
	}
	return nil, fmt.Errorf("no parseable JSON in response")
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// largestJSONCandidate extracts the widest bracket-delimited substring,
// covering responses where the model wrapped JSON in prose.
func largestJSONCandidate(s string) string {
	trimmed := strings.TrimSpace(s)

	objStart := strings.Index(trimmed, "{")
	arrStart := strings.Index(trimmed, "[")

	start := -1
	closer := ""
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		start = arrStart
		closer = "]"
	case objStart >= 0:
		start = objStart
		closer = "}"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closer)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// validateAgainstSchema checks a payload against the caller-supplied
// JSON schema. The schema describes one extracted object; array
// payloads are validated element-wise.
func validateAgainstSchema(schemaRaw, payload json.RawMessage) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(schemaRaw))); err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	if items, ok := doc.([]any); ok {
		for i, item := range items {
			if err := compiled.Validate(item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}
	return compiled.Validate(doc)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
