package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/llmextract/internal/chunker"
	"github.com/dgallion1/llmextract/internal/llm"
)

func TestBuildPrompt_SchemaKindEmbedsSchemaVerbatim(t *testing.T) {
	seg := chunker.Segment{Index: 0, Text: "section text"}
	schema := json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}}}`)

	prompt := BuildPrompt(seg, "extract people", schema, KindSchema)

	if !strings.Contains(prompt, string(schema)) {
		t.Error("expected schema to be embedded verbatim")
	}
	if !strings.Contains(prompt, "extract people") {
		t.Error("expected instruction in prompt")
	}
	if !strings.Contains(prompt, "section text") {
		t.Error("expected segment text in prompt")
	}
	if !strings.Contains(prompt, "JSON array") {
		t.Error("expected schema kind to request a JSON array")
	}
}

func TestBuildPrompt_BlockKindOmitsSchema(t *testing.T) {
	seg := chunker.Segment{Index: 0, Text: "section text"}
	schema := json.RawMessage(`{"type":"object"}`)

	prompt := BuildPrompt(seg, "summarize", schema, KindBlock)

	if strings.Contains(prompt, string(schema)) {
		t.Error("block kind must not embed the schema")
	}
	if !strings.Contains(prompt, "summarize") {
		t.Error("expected instruction in prompt")
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	seg := chunker.Segment{Index: 3, Text: "same input"}
	schema := json.RawMessage(`{"type":"object"}`)

	a := BuildPrompt(seg, "inst", schema, KindSchema)
	b := BuildPrompt(seg, "inst", schema, KindSchema)
	if a != b {
		t.Error("prompt building must be deterministic")
	}
}

func TestBuildRequests(t *testing.T) {
	segs := []chunker.Segment{
		{Index: 0, Text: "first"},
		{Index: 1, Text: "second"},
	}
	params := llm.Params{MaxTokens: 2048, Temperature: 0.1}
	reqs := BuildRequests(segs, "inst", nil, KindSchema, params)

	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	for i, req := range reqs {
		if req.SegmentIndex != i {
			t.Errorf("request %d: expected index %d, got %d", i, i, req.SegmentIndex)
		}
		if req.Params != params {
			t.Errorf("request %d: params not propagated", i)
		}
	}
	if !strings.Contains(reqs[1].Prompt, "second") {
		t.Error("expected second segment text in second request")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(""); err != nil || k != KindSchema {
		t.Errorf("empty kind should default to schema, got %q, %v", k, err)
	}
	if k, err := ParseKind("block"); err != nil || k != KindBlock {
		t.Errorf("expected block, got %q, %v", k, err)
	}
	if _, err := ParseKind("freestyle"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
