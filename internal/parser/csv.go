package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/llmextract/internal/document"
)

// CSVParser handles CSV files. Each data row is rendered as a
// "header: value" line, which extraction models handle far better
// than raw comma-separated cells.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &document.Document{
		Title:       titleFromFilename(filename),
		ContentType: document.TypeText,
	}
	if len(records) == 0 {
		return doc, nil
	}

	// First row is headers.
	headers := records[0]

	var text strings.Builder
	text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n")
	for _, row := range records[1:] {
		parts := make([]string, 0, len(row))
		for j, cell := range row {
			if j < len(headers) {
				parts = append(parts, headers[j]+": "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		text.WriteString(strings.Join(parts, ", "))
		text.WriteString("\n")
	}

	doc.Text = strings.TrimRight(text.String(), "\n")
	return doc, nil
}
