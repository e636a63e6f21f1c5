package core

import (
	"context"

	"github.com/markagu-dev/Vectora/internal/models"
)

// TextExtractor decodes raw file bytes into plain text. Implementations are
// pure transforms over the in-memory buffer; dispatch is by FileKind.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind models.FileKind) (string, error)
}

// Chunker splits extracted text into ordered, token-bounded chunks.
// Implementations must be deterministic for identical input and parameters.
type Chunker interface {
	Chunk(text string) []models.Chunk
}

// EmbeddingProvider converts a batch of chunk texts into one fixed-length
// vector per input, preserving input order. dim is a hint for providers that
// support configurable output dimensionality; others may ignore it.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string, dim int) ([][]float32, error)
}

// Point is one vector plus payload, keyed by a stable identifier, ready to be
// written into a collection.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// VectorStore abstracts the vector index service (Qdrant, pgvector, ...).
// EnsureCollection is idempotent; Upsert overwrites points with existing IDs.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dims int, metric string) error
	Upsert(ctx context.Context, collection string, points []Point) error
	DeletePoints(ctx context.Context, collection string, ids []string) error
	CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error)
}

// HistoryStore is the append-only ingestion history. Records become immutable
// once their status is terminal; Update must reject further writes with
// ErrJobFinalized. Implementations must tolerate concurrent appends.
type HistoryStore interface {
	Append(ctx context.Context, job *models.IngestionJob) error
	Update(ctx context.Context, job *models.IngestionJob) error
	List(ctx context.Context) ([]models.IngestionJob, error)
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

// ObjectClient archives raw uploads in object storage. Optional; archive
// failures never fail an ingestion job.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
}
