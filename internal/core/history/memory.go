package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/models"
)

// MemoryStore is the in-process ingestion history: newest first, append-only,
// records frozen once terminal. It resets on restart, which is acceptable for
// a single-node portal deployment.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.IngestionJob
	index   map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (s *MemoryStore) Append(ctx context.Context, job *models.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[job.ID]; ok {
		return fmt.Errorf("duplicate job id %s", job.ID)
	}

	// Newest first, matching the dashboard's display order.
	s.records = append([]models.IngestionJob{*job}, s.records...)
	s.index = make(map[string]int, len(s.records))
	for i := range s.records {
		s.index[s.records[i].ID] = i
	}
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, job *models.IngestionJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[job.ID]
	if !ok {
		return fmt.Errorf("job not found: %s", job.ID)
	}
	if s.records[i].Terminal() {
		return core.ErrJobFinalized
	}
	s.records[i] = *job
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]models.IngestionJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.IngestionJob, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (*models.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.DashboardStats{TotalDocuments: len(s.records)}
	for i := range s.records {
		r := &s.records[i]
		stats.TotalVectors += r.VectorCount
		stats.TotalChunks += r.ChunkCount
		switch r.Status {
		case models.StatusCompleted:
			stats.CompletedJobs++
		case models.StatusError:
			stats.FailedJobs++
		case models.StatusPending, models.StatusProcessing:
			stats.PendingJobs++
		}
	}
	return stats, nil
}

var _ core.HistoryStore = (*MemoryStore)(nil)
