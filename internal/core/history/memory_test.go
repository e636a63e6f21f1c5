package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/models"
)

func newJob(id, status string) *models.IngestionJob {
	return &models.IngestionJob{
		ID:        id,
		FileName:  id + ".pdf",
		FileType:  models.KindPDF,
		FileSize:  1024,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAppendAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(ctx, newJob(id, models.StatusPending)); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() = %d records, want 3", len(got))
	}
	for i, want := range []string{"c", "b", "a"} {
		if got[i].ID != want {
			t.Errorf("List()[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Append(ctx, newJob("dup", models.StatusPending)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(ctx, newJob("dup", models.StatusPending)); err == nil {
		t.Error("second Append() with same id succeeded, want error")
	}
}

func TestUpdateFreezesTerminalRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	job := newJob("frozen", models.StatusProcessing)
	if err := s.Append(ctx, job); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	now := time.Now().UTC()
	job.Status = models.StatusCompleted
	job.ChunkCount = 5
	job.VectorCount = 5
	job.CompletedAt = &now
	if err := s.Update(ctx, job); err != nil {
		t.Fatalf("terminal Update() error = %v", err)
	}

	job.ChunkCount = 99
	if err := s.Update(ctx, job); !errors.Is(err, core.ErrJobFinalized) {
		t.Errorf("Update() after terminal = %v, want ErrJobFinalized", err)
	}

	got, _ := s.List(ctx)
	if got[0].ChunkCount != 5 {
		t.Errorf("terminal record mutated: chunkCount = %d, want 5", got[0].ChunkCount)
	}
}

func TestUpdateUnknownJob(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Update(context.Background(), newJob("ghost", models.StatusProcessing)); err == nil {
		t.Error("Update() for unknown id succeeded, want error")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	completed := newJob("done", models.StatusCompleted)
	completed.ChunkCount = 5
	completed.VectorCount = 5
	failed := newJob("broken", models.StatusError)
	failed.Error = "extraction failed"
	pending := newJob("queued", models.StatusPending)
	processing := newJob("busy", models.StatusProcessing)

	for _, j := range []*models.IngestionJob{completed, failed, pending, processing} {
		if err := s.Append(ctx, j); err != nil {
			t.Fatalf("Append(%s) error = %v", j.ID, err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	want := models.DashboardStats{
		TotalDocuments: 4,
		TotalVectors:   5,
		TotalChunks:    5,
		CompletedJobs:  1,
		FailedJobs:     1,
		PendingJobs:    2, // pending + processing
	}
	if *stats != want {
		t.Errorf("Stats() = %+v, want %+v", *stats, want)
	}
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Append(ctx, newJob(fmt.Sprintf("job-%d", i), models.StatusPending)); err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != n {
		t.Errorf("List() = %d records after concurrent appends, want %d", len(got), n)
	}
}
