package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/llmextract/internal/callback"
	"github.com/dgallion1/llmextract/internal/extract"
	"github.com/dgallion1/llmextract/internal/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func inlineTextJob(id string, opts Options, text string) *Job {
	return NewJob(id, "doc-"+id, "", "", opts, nil, text)
}

func TestWorker_ProcessInlineTextToCompletion(t *testing.T) {
	client := &llm.MockClient{
		CompleteFn: func(ctx context.Context, call int, req llm.Request) (*llm.Response, error) {
			return &llm.Response{Text: `[{"ok":true}]`}, nil
		},
	}
	w := NewWorker(New(client, nil, nil), nil, testLogger())

	job := inlineTextJob("j1", threeSegmentOptions(), wordsDoc(300).Text)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Errorf("expected completed, got %q", snap.Status)
	}
	if snap.Progress.TotalSegments != 3 || snap.Progress.SegmentsDone != 3 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
	if job.Report() == nil {
		t.Error("expected a report on the finished job")
	}
}

func TestWorker_PartialFailureMarksJobPartial(t *testing.T) {
	client := &llm.MockClient{
		CompleteFn: func(ctx context.Context, call int, req llm.Request) (*llm.Response, error) {
			if strings.Contains(req.Prompt, "w150 ") {
				return nil, errors.New("provider rejected request")
			}
			return &llm.Response{Text: `[{"ok":true}]`}, nil
		},
	}
	w := NewWorker(New(client, nil, nil), nil, testLogger())

	job := inlineTextJob("j2", threeSegmentOptions(), wordsDoc(300).Text)
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Errorf("expected partial, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected the failed segment recorded in job errors")
	}
}

func TestWorker_AllSegmentsFailedMarksJobFailed(t *testing.T) {
	client := &llm.MockClient{
		CompleteFn: func(ctx context.Context, call int, req llm.Request) (*llm.Response, error) {
			return nil, errors.New("provider down")
		},
	}
	w := NewWorker(New(client, nil, nil), nil, testLogger())

	job := inlineTextJob("j3", threeSegmentOptions(), wordsDoc(300).Text)
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("expected failed, got %q", got)
	}
}

func TestWorker_BadOptionsFailInExtractPhase(t *testing.T) {
	client := &llm.MockClient{
		CompleteFn: func(ctx context.Context, call int, req llm.Request) (*llm.Response, error) {
			t.Error("no provider call expected")
			return nil, nil
		},
	}
	w := NewWorker(New(client, nil, nil), nil, testLogger())

	opts := threeSegmentOptions()
	opts.Instruction = ""
	job := inlineTextJob("j4", opts, "some text")
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusFailed {
		t.Errorf("expected failed, got %q", got)
	}
}

func TestWorker_DeliversReportToCallback(t *testing.T) {
	received := make(chan map[string]json.RawMessage, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		json.NewDecoder(r.Body).Decode(&body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &llm.MockClient{
		CompleteFn: func(ctx context.Context, call int, req llm.Request) (*llm.Response, error) {
			return &llm.Response{Text: `[{"ok":true}]`}, nil
		},
	}
	cb := callback.NewClient(srv.URL, "key")
	defer cb.Close()
	w := NewWorker(New(client, nil, nil), cb, testLogger())

	job := inlineTextJob("j5", threeSegmentOptions(), wordsDoc(300).Text)
	w.Process(context.Background(), job)

	select {
	case body := <-received:
		var jobID string
		json.Unmarshal(body["job_id"], &jobID)
		if jobID != "j5" {
			t.Errorf("expected delivered job_id j5, got %q", jobID)
		}
		var report extract.Report
		if err := json.Unmarshal(body["report"], &report); err != nil {
			t.Fatalf("invalid delivered report: %v", err)
		}
		if !report.Success {
			t.Error("expected delivered report to be successful")
		}
	default:
		t.Fatal("expected a callback delivery")
	}
}
