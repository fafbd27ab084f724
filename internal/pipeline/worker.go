package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/llmextract/internal/callback"
	"github.com/dgallion1/llmextract/internal/document"
	"github.com/dgallion1/llmextract/internal/extract"
	"github.com/dgallion1/llmextract/internal/parser"
)

// Worker processes a single extraction job.
type Worker struct {
	pipeline *Pipeline
	cb       *callback.Client
	log      *slog.Logger
}

func NewWorker(p *Pipeline, cb *callback.Client, log *slog.Logger) *Worker {
	return &Worker{
		pipeline: p,
		cb:       cb,
		log:      log,
	}
}

// Process runs the full extraction pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	doc, err := w.loadDocument(job)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "loading")
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	opts := job.Options()
	opts.OnPlan = job.SetTotalSegments
	opts.OnSegmentDone = func(segmentIndex int, err error) {
		job.IncrSegmentsDone()
		if err != nil {
			job.AddError(fmt.Sprintf("segment %d: %s", segmentIndex, err))
		}
	}

	report, err := w.pipeline.Run(ctx, doc, opts)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	job.SetReport(report)

	hadErrors := false
	for _, seg := range report.Segments {
		if seg.Status != extract.StatusOK {
			hadErrors = true
			break
		}
	}
	switch {
	case report.Success && hadErrors:
		job.SetStatus(StatusPartial, "done")
	case report.Success:
		job.SetStatus(StatusCompleted, "done")
	default:
		job.SetStatus(StatusFailed, "extracting")
	}
	log.Info("job finished",
		"status", job.Snapshot().Status,
		"segments", len(report.Segments),
		"total_tokens", report.TotalUsage.TotalTokens,
	)

	// Phase 3: Deliver, when a callback endpoint is configured.
	if w.cb != nil {
		if err := w.cb.PostReport(ctx, job.ID, job.DocID, report); err != nil {
			log.Error("callback delivery failed", "error", err)
			job.AddError(fmt.Sprintf("callback: %s", err))
		}
	}
}

// loadDocument turns the job's input into pipeline-ready text. Uploads
// go through the format parsers; inline text is taken as-is.
func (w *Worker) loadDocument(job *Job) (*document.Document, error) {
	if data := job.FileData(); len(data) > 0 {
		p, err := parser.ForFile(job.Filename)
		if err != nil {
			return nil, err
		}
		doc, err := p.Parse(bytes.NewReader(data), job.Filename)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		return doc, nil
	}
	return &document.Document{
		Title:       job.Title,
		Text:        job.Text(),
		ContentType: document.TypeText,
	}, nil
}
