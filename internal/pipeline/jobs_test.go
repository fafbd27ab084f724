package pipeline

import (
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("test-1", "doc-1", "doc.txt", "", Options{}, nil, "text")

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusLoading, "loading"},
		{StatusExtracting, "extracting"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob("err-test", "doc", "", "", Options{}, nil, "")
	job.AddError("segment 3 failed")
	job.AddError("segment 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "segment 3 failed" {
		t.Errorf("expected first error %q, got %q", "segment 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_SegmentProgress(t *testing.T) {
	job := NewJob("incr-test", "doc", "", "", Options{}, nil, "")
	job.SetTotalSegments(5)
	job.IncrSegmentsDone()
	job.IncrSegmentsDone()
	job.IncrSegmentsDone()

	snap := job.Snapshot()
	if snap.Progress.TotalSegments != 5 {
		t.Errorf("expected 5 total segments, got %d", snap.Progress.TotalSegments)
	}
	if snap.Progress.SegmentsDone != 3 {
		t.Errorf("expected 3 segments done, got %d", snap.Progress.SegmentsDone)
	}
}

func TestJob_SnapshotHasNonNilErrors(t *testing.T) {
	job := NewJob("snap-test", "doc", "", "", Options{}, nil, "")
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil error slice in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("store-1", "doc", "", "", Options{}, nil, "")
	store.Put(job)

	if got := store.Get("store-1"); got != job {
		t.Error("expected to get back the stored job")
	}
	if got := store.Get("missing"); got != nil {
		t.Error("expected nil for unknown job ID")
	}
}

func TestJobStore_Cleanup(t *testing.T) {
	store := NewJobStore(10 * time.Millisecond)
	job := NewJob("ttl-1", "doc", "", "", Options{}, nil, "")
	store.Put(job)

	time.Sleep(20 * time.Millisecond)
	store.Cleanup()

	if got := store.Get("ttl-1"); got != nil {
		t.Error("expected expired job to be evicted")
	}
}
