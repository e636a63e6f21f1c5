package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ingestion pipeline. Stage wrappers below attach the
// file name so a job's error field reads as a human cause.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrExtraction          = errors.New("extraction failed")
	ErrChunking            = errors.New("chunking failed")
	ErrEmbedding           = errors.New("embedding failed")
	ErrVectorStore         = errors.New("vector store failed")

	// ErrCollectionMismatch means the collection exists with a different
	// dimensionality or metric than configured. We fail fast rather than
	// let the store reject writes mid-upsert.
	ErrCollectionMismatch = errors.New("collection schema mismatch")

	// ErrJobFinalized is returned by history stores when an update targets
	// a job already in a terminal state.
	ErrJobFinalized = errors.New("ingestion job already finalized")
)

// ExtractionError wraps a decode failure with the originating file name.
func ExtractionError(fileName string, err error) error {
	return fmt.Errorf("%w for %q: %v", ErrExtraction, fileName, err)
}

// EmbeddingError wraps an embedding provider failure after retry.
func EmbeddingError(fileName string, err error) error {
	return fmt.Errorf("%w for %q: %v", ErrEmbedding, fileName, err)
}

// VectorStoreError wraps a collection or upsert failure.
func VectorStoreError(fileName string, err error) error {
	return fmt.Errorf("%w for %q: %v", ErrVectorStore, fileName, err)
}
