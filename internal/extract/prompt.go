package extract

import (
	"encoding/json"
	"strings"

	"github.com/dgallion1/llmextract/internal/chunker"
	"github.com/dgallion1/llmextract/internal/llm"
)

const schemaPreamble = `Extract structured data from the following document section according to the instruction below. Return ONLY a JSON array of objects conforming to the provided JSON schema. Do not include any prose, explanation or markdown fences around the JSON.

If the section contains no matching data, return an empty array [].`

const blockPreamble = `Extract the content requested by the instruction below from the following document section. Respond with the extracted content only, no preamble or commentary.`

// BuildPrompt combines a segment, an instruction and an optional schema
// into one prompt. It is deterministic: identical inputs always produce
// identical output, so extractions are exactly reproducible.
func BuildPrompt(seg chunker.Segment, instruction string, schema json.RawMessage, kind Kind) string {
	var sb strings.Builder

	switch kind {
	case KindBlock:
		sb.WriteString(blockPreamble)
	default:
		sb.WriteString(schemaPreamble)
	}

	sb.WriteString("\n\nInstruction: ")
	sb.WriteString(instruction)

	// The schema is forwarded verbatim; the pipeline never rewrites or
	// infers schemas.
	if kind == KindSchema && len(schema) > 0 {
		sb.WriteString("\n\nJSON schema:\n")
		sb.Write(schema)
	}

	sb.WriteString("\n\n--- DOCUMENT SECTION ---\n")
	sb.WriteString(seg.Text)

	return sb.String()
}

// BuildRequests expands segments into dispatchable requests, one per
// segment, preserving segment order.
func BuildRequests(segments []chunker.Segment, instruction string, schema json.RawMessage, kind Kind, params llm.Params) []Request {
	reqs := make([]Request, 0, len(segments))
	for _, seg := range segments {
		reqs = append(reqs, Request{
			SegmentIndex: seg.Index,
			Prompt:       BuildPrompt(seg, instruction, schema, kind),
			Params:       params,
		})
	}
	return reqs
}
