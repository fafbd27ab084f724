package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/llmextract/internal/parser"
	"github.com/dgallion1/llmextract/internal/pipeline"
)

// handleSubmitJob queues an asynchronous extraction. The multipart
// form carries either an uploaded file or an inline "text" field,
// plus the extraction options as form values.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	instruction := r.FormValue("instruction")
	if instruction == "" {
		jsonError(w, "instruction is required", http.StatusBadRequest)
		return
	}

	var (
		data     []byte
		filename string
		text     string
	)
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		filename = sanitizeFilename(header.Filename)
		if !parser.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
			return
		}
		data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
		if err != nil {
			jsonError(w, "failed to read file", http.StatusInternalServerError)
			return
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
	} else {
		text = r.FormValue("text")
		if text == "" {
			jsonError(w, "either file or text is required", http.StatusBadRequest)
			return
		}
	}

	req := extractRequest{
		Instruction: instruction,
		Schema:      json.RawMessage(r.FormValue("schema")),
		Kind:        r.FormValue("kind"),
		Chunking: chunkOverrides{
			ChunkTokenThreshold: formInt(r, "chunk_token_threshold"),
			OverlapRate:         formFloat(r, "overlap_rate"),
			WordTokenRate:       formFloat(r, "word_token_rate"),
			ApplyChunking:       formBool(r, "apply_chunking"),
		},
		Concurrency: formInt(r, "concurrency"),
		MaxRetries:  formInt(r, "max_retries"),
		MaxTokens:   formInt(r, "max_tokens"),
		Temperature: formFloat(r, "temperature"),
	}
	opts := buildOptions(s.cfg, &req)
	if err := opts.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	docID := r.FormValue("doc_id")
	if docID == "" {
		if len(data) > 0 {
			docID = pipeline.ContentHashHex(data)[:16]
		} else {
			docID = pipeline.ContentHashHex([]byte(text))[:16]
		}
	}

	job := pipeline.NewJob(uuid.NewString(), docID, filename, r.FormValue("title"), opts, data, text)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	report := job.Report()
	if report == nil {
		jsonError(w, "report not ready", http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func formInt(r *http.Request, key string) *int {
	if v := r.FormValue(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func formFloat(r *http.Request, key string) *float64 {
	if v := r.FormValue(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func formBool(r *http.Request, key string) *bool {
	if v := r.FormValue(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return &b
		}
	}
	return nil
}
