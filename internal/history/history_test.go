package history

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/massvision/reap3r/internal/transport"
)

func testStore(t *testing.T, capacity int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, capacity)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t, 10)

	for i := 0; i < 3; i++ {
		job := transport.JobRequest{JobID: fmt.Sprintf("j%d", i), JobType: "run_script"}
		result := transport.JobResult{JobID: job.JobID, Status: "success", StartedAt: int64(i), CompletedAt: int64(i + 1)}
		if err := s.Record(job, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].JobID != "j2" {
		t.Fatalf("entries[0].JobID = %q, want j2 (newest first)", entries[0].JobID)
	}
}

func TestRecordEvictsOldestPastCapacity(t *testing.T) {
	s := testStore(t, 2)

	for i := 0; i < 5; i++ {
		job := transport.JobRequest{JobID: fmt.Sprintf("j%d", i), JobType: "run_script"}
		result := transport.JobResult{JobID: job.JobID, Status: "success", StartedAt: int64(i), CompletedAt: int64(i + 1)}
		if err := s.Record(job, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (capped)", len(entries))
	}
	if entries[0].JobID != "j4" || entries[1].JobID != "j3" {
		t.Fatalf("unexpected surviving entries: %+v", entries)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	s := testStore(t, 10)
	job := transport.JobRequest{JobID: "j0", JobType: "run_script"}
	result := transport.JobResult{JobID: "j0", Status: "success", CompletedAt: 1}
	if err := s.Record(job, result); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0 after Clear", len(entries))
	}
}
