// Package callback delivers completed extraction reports to an
// external HTTP endpoint, when one is configured.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgallion1/llmextract/internal/extract"
)

// Client posts reports to a webhook URL with bearer auth.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// deliveryEnvelope wraps a report with the job identifiers the
// receiving system needs to correlate it.
type deliveryEnvelope struct {
	JobID       string          `json:"job_id"`
	DocID       string          `json:"doc_id"`
	CompletedAt string          `json:"completed_at"`
	Report      *extract.Report `json:"report"`
}

// PostReport delivers one completed report. Delivery failures are the
// caller's to log; the report itself stays available via the job store.
func (c *Client) PostReport(ctx context.Context, jobID, docID string, report *extract.Report) error {
	body, err := json.Marshal(deliveryEnvelope{
		JobID:       jobID,
		DocID:       docID,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
		Report:      report,
	})
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("post report %s: status %d: %s", jobID, resp.StatusCode, string(respBody))
	}
	return nil
}

// Close releases any resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
