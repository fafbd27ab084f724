package document

import (
	"fmt"
	"strings"
)

// ContentType tags the format a document's text was produced from.
type ContentType string

const (
	TypeText        ContentType = "text"
	TypeMarkdown    ContentType = "markdown"
	TypeHTML        ContentType = "html"
	TypeFitMarkdown ContentType = "fit_markdown"
)

// ParseContentType validates a content type string.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case TypeText, TypeMarkdown, TypeHTML, TypeFitMarkdown:
		return ContentType(s), nil
	case "":
		return TypeText, nil
	}
	return "", fmt.Errorf("unknown content type: %q", s)
}

// Document is the immutable input to the extraction pipeline.
// Text is the already-rendered content; the pipeline never fetches
// or renders documents itself.
type Document struct {
	Title       string
	Text        string
	ContentType ContentType

	// TokenEstimate is an optional pre-computed estimate. Zero means
	// unknown; consumers recompute with EstimateTokens as needed.
	TokenEstimate int
}

// WordCount returns the number of whitespace-separated words.
func (d *Document) WordCount() int {
	return len(strings.Fields(d.Text))
}

// EstimateTokens converts a word count into an approximate token count
// using wordTokenRate (words per token). This is a heuristic, not a
// tokenizer call; accuracy depends entirely on the chosen ratio. The
// default ratio of 0.75 assumes roughly 1.33 tokens per English word.
func EstimateTokens(text string, wordTokenRate float64) int {
	if text == "" {
		return 0
	}
	if wordTokenRate <= 0 {
		wordTokenRate = 0.75
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) / wordTokenRate)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
