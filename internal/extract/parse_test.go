package extract

import (
	"encoding/json"
	"strings"
	"testing"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"}
	},
	"required": ["name"]
}`

func TestParseResponse_CleanJSONArray(t *testing.T) {
	r := ParseResponse(0, `[{"name":"Ada","age":36}]`, KindSchema, nil)
	if r.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", r.Status, r.ErrorDetail)
	}
	var items []map[string]any
	if err := json.Unmarshal(r.Payload, &items); err != nil {
		t.Fatalf("payload not an array: %v", err)
	}
	if len(items) != 1 || items[0]["name"] != "Ada" {
		t.Errorf("unexpected payload: %s", r.Payload)
	}
}

func TestParseResponse_CodeFencedJSON(t *testing.T) {
	text := "```json\n[{\"name\":\"Ada\"}]\n```"
	r := ParseResponse(2, text, KindSchema, nil)
	if r.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", r.Status, r.ErrorDetail)
	}
	if r.SegmentIndex != 2 {
		t.Errorf("expected segment index 2, got %d", r.SegmentIndex)
	}
}

func TestParseResponse_SalvagesJSONFromProse(t *testing.T) {
	text := `Sure! Here is the extracted data:

[{"name":"Ada","age":36},{"name":"Alan","age":41}]

Let me know if you need anything else.`
	r := ParseResponse(1, text, KindSchema, nil)
	if r.Status != StatusOK {
		t.Fatalf("expected salvage to succeed, got %s (%s)", r.Status, r.ErrorDetail)
	}
	var items []map[string]any
	if err := json.Unmarshal(r.Payload, &items); err != nil {
		t.Fatalf("payload not an array: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestParseResponse_UnrecoverableTextIsParseError(t *testing.T) {
	text := "I could not find any structured data in this section."
	r := ParseResponse(3, text, KindSchema, nil)
	if r.Status != StatusParseError {
		t.Fatalf("expected parse_error, got %s", r.Status)
	}
	if !strings.Contains(r.ErrorDetail, "could not find") {
		t.Errorf("expected raw text preserved in error detail, got %q", r.ErrorDetail)
	}
	if len(r.Payload) != 0 {
		t.Errorf("expected empty payload, got %s", r.Payload)
	}
}

func TestParseResponse_SchemaValidationWarningKeepsPayload(t *testing.T) {
	// age violates the schema type but the content is still returned.
	r := ParseResponse(0, `[{"name":"Ada","age":"thirty-six"}]`, KindSchema, json.RawMessage(personSchema))
	if r.Status != StatusOK {
		t.Fatalf("expected ok with warning, got %s (%s)", r.Status, r.ErrorDetail)
	}
	if r.Warning == "" {
		t.Fatal("expected schema validation warning")
	}
	if len(r.Payload) == 0 {
		t.Fatal("expected payload to be kept despite validation warning")
	}
}

func TestParseResponse_SchemaValidationPasses(t *testing.T) {
	r := ParseResponse(0, `[{"name":"Ada","age":36}]`, KindSchema, json.RawMessage(personSchema))
	if r.Status != StatusOK {
		t.Fatalf("expected ok, got %s", r.Status)
	}
	if r.Warning != "" {
		t.Errorf("unexpected warning: %s", r.Warning)
	}
}

func TestParseResponse_BlockWrapsRawText(t *testing.T) {
	text := "The quarterly revenue grew by 14%."
	r := ParseResponse(0, text, KindBlock, nil)
	if r.Status != StatusOK {
		t.Fatalf("block parsing must not fail, got %s", r.Status)
	}
	var s string
	if err := json.Unmarshal(r.Payload, &s); err != nil {
		t.Fatalf("expected JSON string payload: %v", err)
	}
	if s != text {
		t.Errorf("expected %q, got %q", text, s)
	}
}

func TestParseResponse_BlockKeepsEmbeddedJSON(t *testing.T) {
	r := ParseResponse(0, `{"summary":"growth"}`, KindBlock, nil)
	if r.Status != StatusOK {
		t.Fatalf("expected ok, got %s", r.Status)
	}
	var obj map[string]any
	if err := json.Unmarshal(r.Payload, &obj); err != nil {
		t.Fatalf("expected object payload: %v", err)
	}
	if obj["summary"] != "growth" {
		t.Errorf("unexpected payload: %s", r.Payload)
	}
}

func TestParseResponse_EmptyResponse(t *testing.T) {
	r := ParseResponse(0, "", KindSchema, nil)
	if r.Status != StatusParseError {
		t.Fatalf("expected parse_error for empty response, got %s", r.Status)
	}
}

func TestLargestJSONCandidate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`prefix [1,2,3] suffix`, `[1,2,3]`},
		{`text {"a":1} more`, `{"a":1}`},
		{`{"a":[1,2]}`, `{"a":[1,2]}`},
		{`no json here`, ``},
		{`broken ] [ order`, ``},
	}
	for _, tc := range cases {
		if got := largestJSONCandidate(tc.in); got != tc.want {
			t.Errorf("largestJSONCandidate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
