package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/llmextract/internal/document"
)

// ErrBadConfig marks a chunking configuration rejected before any work
// is done. Callers can test for it with errors.Is.
var ErrBadConfig = errors.New("invalid chunking configuration")

// Config controls how a document is split into segments.
type Config struct {
	// ChunkTokenThreshold is the maximum estimated tokens per segment.
	ChunkTokenThreshold int

	// OverlapRate is the fraction of a segment's word budget repeated
	// at the start of the next segment. Must be in [0, 1).
	OverlapRate float64

	// WordTokenRate converts the token budget into a word budget
	// (words per token). Must be in (0, 1].
	WordTokenRate float64

	// ApplyChunking disables splitting entirely when false: the whole
	// document becomes a single segment and the caller accepts the
	// risk of exceeding the model's context window.
	ApplyChunking bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkTokenThreshold: 2048,
		OverlapRate:         0.1,
		WordTokenRate:       0.75,
		ApplyChunking:       true,
	}
}

// Validate rejects configurations that would produce degenerate splits.
func (c Config) Validate() error {
	if c.ChunkTokenThreshold <= 0 {
		return fmt.Errorf("%w: chunk_token_threshold must be > 0, got %d", ErrBadConfig, c.ChunkTokenThreshold)
	}
	if c.OverlapRate < 0 || c.OverlapRate >= 1 {
		return fmt.Errorf("%w: overlap_rate must be in [0,1), got %g", ErrBadConfig, c.OverlapRate)
	}
	if c.WordTokenRate <= 0 || c.WordTokenRate > 1 {
		return fmt.Errorf("%w: word_token_rate must be in (0,1], got %g", ErrBadConfig, c.WordTokenRate)
	}
	if c.wordsPerChunk() < 1 {
		return fmt.Errorf("%w: chunk_token_threshold %d with word_token_rate %g yields an empty word budget",
			ErrBadConfig, c.ChunkTokenThreshold, c.WordTokenRate)
	}
	return nil
}

// wordsPerChunk is the word budget derived from the token threshold.
func (c Config) wordsPerChunk() int {
	return int(float64(c.ChunkTokenThreshold) * c.WordTokenRate)
}

// OverlapWords is the number of words repeated between consecutive segments.
func (c Config) OverlapWords() int {
	return int(c.OverlapRate * float64(c.wordsPerChunk()))
}

// Segment is one word-bounded slice of a document. Offsets are word
// indexes into strings.Fields of the source text; consecutive segments
// tile the document with no gaps, and Text additionally carries the
// last OverlapWithPrevious words of the preceding window as context.
type Segment struct {
	Index               int    `json:"index"`
	Text                string `json:"text"`
	StartOffset         int    `json:"start_offset"`
	EndOffset           int    `json:"end_offset"`
	OverlapWithPrevious int    `json:"overlap_with_previous"`
}

// Split divides a document into token-bounded, overlap-preserving
// segments. It is a pure function of its inputs: no I/O, no state.
// Splitting happens on word boundaries only, so segment sizes are
// approximate with respect to the token threshold.
func Split(doc *document.Document, cfg Config) ([]Segment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(doc.Text)

	if !cfg.ApplyChunking || len(words) == 0 {
		return []Segment{{
			Index:       0,
			Text:        doc.Text,
			StartOffset: 0,
			EndOffset:   len(words),
		}}, nil
	}

	budget := cfg.wordsPerChunk()
	if len(words) <= budget {
		// Document shorter than one chunk: single segment, no overlap.
		return []Segment{{
			Index:       0,
			Text:        strings.Join(words, " "),
			StartOffset: 0,
			EndOffset:   len(words),
		}}, nil
	}

	overlap := cfg.OverlapWords()

	var segments []Segment
	for start := 0; start < len(words); start += budget {
		end := start + budget
		if end > len(words) {
			end = len(words)
		}

		ovl := 0
		textStart := start
		if start > 0 && overlap > 0 {
			ovl = overlap
			if ovl > start {
				ovl = start
			}
			textStart = start - ovl
		}

		segments = append(segments, Segment{
			Index:               len(segments),
			Text:                strings.Join(words[textStart:end], " "),
			StartOffset:         start,
			EndOffset:           end,
			OverlapWithPrevious: ovl,
		})
	}

	return segments, nil
}
