package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/models"
)

// PgVectorStore keeps one pgvector-backed table per collection, described by
// a meta table so dimensionality and metric survive restarts.
type PgVectorStore struct {
	db *sql.DB
}

func NewPgVectorStore(ctx context.Context, databaseURL string) (*PgVectorStore, error) {
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

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	const ddl = `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS vector_collections (
			name   text PRIMARY KEY,
			dims   integer NOT NULL,
			metric text NOT NULL
		);
	`
	if _, err := db.ExecContext(pingCtx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &PgVectorStore{db: db}, nil
}

func (s *PgVectorStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// tableFor returns the quoted per-collection table identifier.
func tableFor(collection string) string {
	return pgx.Identifier{"points_" + collection}.Sanitize()
}

func (s *PgVectorStore) EnsureCollection(ctx context.Context, name string, dims int, metric string) error {
	var haveDims int
	var haveMetric string
	err := s.db.QueryRowContext(ctx,
		`SELECT dims, metric FROM vector_collections WHERE name = $1`, name,
	).Scan(&haveDims, &haveMetric)

	switch {
	case err == sql.ErrNoRows:
		create := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id        text PRIMARY KEY,
				embedding vector(%d) NOT NULL,
				payload   jsonb NOT NULL DEFAULT '{}'::jsonb
			)`, tableFor(name), dims)
		if _, err := s.db.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("create collection table: %w", err)
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO vector_collections (name, dims, metric) VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO NOTHING`, name, dims, metric)
		if err != nil {
			return fmt.Errorf("register collection: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("describe collection %q: %w", name, err)
	}

	if haveDims != dims || haveMetric != metric {
		return fmt.Errorf("%w: collection %q has dims=%d metric=%s, want dims=%d metric=%s",
			core.ErrCollectionMismatch, name, haveDims, haveMetric, dims, metric)
	}
	return nil
}

// Upsert inserts points in one transaction; conflicting IDs are overwritten.
func (s *PgVectorStore) Upsert(ctx context.Context, collection string, points []core.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload
	`, tableFor(collection))

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range points {
		p := &points[i]
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal payload for %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, pgvector.NewVector(p.Vector), payload); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert point %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PgVectorStore) DeletePoints(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, tableFor(collection))
	if _, err := s.db.ExecContext(ctx, q, ids); err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

func (s *PgVectorStore) CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error) {
	var dims int
	var metric string
	err := s.db.QueryRowContext(ctx,
		`SELECT dims, metric FROM vector_collections WHERE name = $1`, name,
	).Scan(&dims, &metric)
	if err == sql.ErrNoRows {
		return &models.CollectionInfo{Name: name, Status: "not_found"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("describe collection %q: %w", name, err)
	}

	var count uint64
	q := fmt.Sprintf(`SELECT count(*) FROM %s`, tableFor(name))
	if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
		return nil, fmt.Errorf("count points: %w", err)
	}

	return &models.CollectionInfo{
		Name:           name,
		VectorCount:    count,
		VectorSize:     dims,
		DistanceMetric: metric,
		Status:         "green",
	}, nil
}

var _ core.VectorStore = (*PgVectorStore)(nil)
