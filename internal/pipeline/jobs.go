package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/llmextract/internal/extract"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusLoading    JobStatus = "loading"
	StatusExtracting JobStatus = "extracting"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single asynchronous extraction.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename,omitempty"`
	Title    string    `json:"title,omitempty"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Inputs, not serialized with status.
	opts     Options
	fileData []byte
	text     string

	report *extract.Report
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalSegments int      `json:"total_segments"`
	SegmentsDone  int      `json:"segments_done"`
	TotalTokens   int      `json:"total_tokens"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for the given inputs. Exactly one of
// fileData or text should be set.
func NewJob(id, docID, filename, title string, opts Options, fileData []byte, text string) *Job {
	now := time.Now()
	return &Job{
		ID:          id,
		DocID:       docID,
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Title:       title,
		CreatedAt: now,
		UpdatedAt: now,
		opts:      opts,
		fileData:  fileData,
		text:      text,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalSegments records the segment count once chunking is done.
func (j *Job) SetTotalSegments(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSegments = n
	j.UpdatedAt = time.Now()
}

// IncrSegmentsDone bumps the completed-segment counter.
func (j *Job) IncrSegmentsDone() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SegmentsDone++
	j.UpdatedAt = time.Now()
}

// SetReport attaches the final report and records token totals.
func (j *Job) SetReport(r *extract.Report) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.report = r
	if r != nil {
		j.Progress.TotalTokens = r.TotalUsage.TotalTokens
	}
	j.UpdatedAt = time.Now()
}

// Report returns the final report, or nil while the job is running.
func (j *Job) Report() *extract.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.report
}

// FileData returns the raw uploaded bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Text returns the inline document text, if the job was submitted with one.
func (j *Job) Text() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.text
}

// Options returns the extraction options the job was submitted with.
func (j *Job) Options() Options {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.opts
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	DocID    string    `json:"doc_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename,omitempty"`
	Title    string    `json:"title,omitempty"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		DocID:    j.DocID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			TotalSegments: j.Progress.TotalSegments,
			SegmentsDone:  j.Progress.SegmentsDone,
			TotalTokens:   j.Progress.TotalTokens,
			Errors:        errs,
		},
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns a hex string.
// Used for content-derived document IDs.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
