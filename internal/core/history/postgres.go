package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/models"
)

// PostgresStore persists the ingestion history so it survives restarts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(bootCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := ensureBootstrapped(bootCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func ensureBootstrapped(ctx context.Context, db *sql.DB) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS ingestion_jobs (
			id           text PRIMARY KEY,
			file_name    text NOT NULL,
			file_type    text NOT NULL,
			file_size    bigint NOT NULL,
			status       text NOT NULL,
			chunk_count  integer NOT NULL DEFAULT 0,
			vector_count integer NOT NULL DEFAULT 0,
			error        text NOT NULL DEFAULT '',
			created_at   timestamptz NOT NULL,
			completed_at timestamptz
		)
	`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, job *models.IngestionJob) error {
	const q = `
		INSERT INTO ingestion_jobs
			(id, file_name, file_type, file_size, status, chunk_count, vector_count, error, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, q,
		job.ID, job.FileName, string(job.FileType), job.FileSize, job.Status,
		job.ChunkCount, job.VectorCount, job.Error, job.CreatedAt, job.CompletedAt)
	return err
}

// Update replaces a non-terminal record. Terminal records are immutable; an
// update against one returns ErrJobFinalized.
func (s *PostgresStore) Update(ctx context.Context, job *models.IngestionJob) error {
	const q = `
		UPDATE ingestion_jobs
		SET status = $2, chunk_count = $3, vector_count = $4, error = $5, completed_at = $6
		WHERE id = $1 AND status NOT IN ('completed', 'error')
	`
	res, err := s.db.ExecContext(ctx, q,
		job.ID, job.Status, job.ChunkCount, job.VectorCount, job.Error, job.CompletedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var status string
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM ingestion_jobs WHERE id = $1`, job.ID).Scan(&status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("job not found: %s", job.ID)
		}
		if err != nil {
			return err
		}
		return core.ErrJobFinalized
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.IngestionJob, error) {
	const q = `
		SELECT id, file_name, file_type, file_size, status, chunk_count, vector_count, error, created_at, completed_at
		FROM ingestion_jobs
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IngestionJob
	for rows.Next() {
		var j models.IngestionJob
		var fileType string
		if err := rows.Scan(
			&j.ID, &j.FileName, &fileType, &j.FileSize, &j.Status,
			&j.ChunkCount, &j.VectorCount, &j.Error, &j.CreatedAt, &j.CompletedAt,
		); err != nil {
			return nil, err
		}
		j.FileType = models.FileKind(fileType)
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (*models.DashboardStats, error) {
	const q = `
		SELECT
			count(*),
			COALESCE(sum(vector_count), 0),
			COALESCE(sum(chunk_count), 0),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'error'),
			count(*) FILTER (WHERE status IN ('pending', 'processing'))
		FROM ingestion_jobs
	`
	var stats models.DashboardStats
	err := s.db.QueryRowContext(ctx, q).Scan(
		&stats.TotalDocuments, &stats.TotalVectors, &stats.TotalChunks,
		&stats.CompletedJobs, &stats.FailedJobs, &stats.PendingJobs,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

var _ core.HistoryStore = (*PostgresStore)(nil)
