package ingestion_engine

import (
	"time"

	"github.com/markagu-dev/Vectora/internal/models"
)

// IngestConfig tunes the ingestion pipeline.
//
// TargetTokens:    tokens per chunk (e.g., 500).
// OverlapTokens:   token overlap between consecutive chunks (e.g., 50).
// EmbedBatchSize:  how many chunk texts go into one embedding call.
// UpsertBatchSize: how many points go into one vector store write.
// EmbedTimeout / UpsertTimeout bound the two external calls; each call gets
// one retry before the job fails.
// Concurrency:     max files of one batch processed at the same time.
type IngestConfig struct {
	TargetTokens    int
	OverlapTokens   int
	EmbedBatchSize  int
	UpsertBatchSize int
	EmbedTimeout    time.Duration
	UpsertTimeout   time.Duration
	Concurrency     int

	CollectionName string
	EmbedDim       int
	DistanceMetric string

	// ArchiveBucket enables raw-upload archiving when non-empty.
	ArchiveBucket string
}

// UploadedFile is one file of an upload batch, with its kind already resolved
// at the API boundary.
type UploadedFile struct {
	Name string
	Kind models.FileKind
	MIME string
	Size int64
	Data []byte
}
