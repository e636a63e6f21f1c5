package models

import (
	"time"
)

// FileKind is the closed set of document types the pipeline accepts.
// It is resolved from the declared MIME type once, at the API boundary;
// everything below the handlers dispatches on FileKind, never on MIME strings.
type FileKind string

const (
	KindPDF  FileKind = "pdf"
	KindCSV  FileKind = "csv"
	KindXLSX FileKind = "xlsx"
	KindDOCX FileKind = "docx"
)

// mimeTable maps declared MIME types to file kinds.
var mimeTable = map[string]FileKind{
	"application/pdf": KindPDF,
	"text/csv":        KindCSV,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       KindXLSX,
	"application/vnd.ms-excel":                                                KindXLSX,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
}

// KindFromMIME resolves a declared MIME type to its FileKind.
// The second return is false for anything outside the supported set.
func KindFromMIME(mime string) (FileKind, bool) {
	k, ok := mimeTable[mime]
	return k, ok
}

// Job status values. Terminal states (completed, error) are absorbing.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// IngestionJob tracks one uploaded file through the pipeline to a terminal state.
type IngestionJob struct {
	ID          string     `db:"id" json:"id"`
	FileName    string     `db:"file_name" json:"fileName"`
	FileType    FileKind   `db:"file_type" json:"fileType"`
	FileSize    int64      `db:"file_size" json:"fileSize"`
	Status      string     `db:"status" json:"status"`
	ChunkCount  int        `db:"chunk_count" json:"chunkCount"`
	VectorCount int        `db:"vector_count" json:"vectorCount"`
	Error       string     `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// Terminal reports whether the job has reached an absorbing state.
func (j *IngestionJob) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusError
}

// Chunk is one contiguous span of a document's extracted text, the unit of
// embedding. Chunks live only for the duration of an ingestion run.
type Chunk struct {
	Index      int
	Text       string
	TokenCount int
}

// DashboardStats aggregates the ingestion history for the portal dashboard.
type DashboardStats struct {
	TotalDocuments int `json:"totalDocuments"`
	TotalVectors   int `json:"totalVectors"`
	TotalChunks    int `json:"totalChunks"`
	CompletedJobs  int `json:"completedJobs"`
	FailedJobs     int `json:"failedJobs"`
	PendingJobs    int `json:"pendingJobs"`
}

// CollectionInfo describes the vector store collection backing the index.
type CollectionInfo struct {
	Name           string `json:"name"`
	VectorCount    uint64 `json:"vectorCount"`
	VectorSize     int    `json:"vectorSize"`
	DistanceMetric string `json:"distanceMetric"`
	Status         string `json:"status"`
}
