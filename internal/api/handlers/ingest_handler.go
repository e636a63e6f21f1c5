package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/markagu-dev/Vectora/internal/core/ingestion_engine"
	"github.com/markagu-dev/Vectora/internal/models"
)

const maxUploadBytes = 64 << 20 // 64 MB across the whole batch

type IngestHandler struct {
	ingestor *ingestion_engine.Ingestor
	log      *zap.Logger
}

func NewIngestHandler(ing *ingestion_engine.Ingestor, log *zap.Logger) *IngestHandler {
	return &IngestHandler{ingestor: ing, log: log}
}

// Upload accepts a multipart batch, screens every declared MIME type up
// front, then runs the pipeline. Per-file failures live in the returned
// records; only a structurally invalid request gets a 4xx.
func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files provided")
		return
	}

	// Validate the whole batch before touching any file, so one bad part
	// never aborts files already screened as valid.
	kinds := make([]models.FileKind, len(headers))
	for idx, fh := range headers {
		ct := partContentType(fh.Header.Get("Content-Type"))
		kind, ok := models.KindFromMIME(ct)
		if !ok {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Unsupported file type: %s. Supported types: PDF, CSV, XLSX, DOCX", ct))
			return
		}
		kinds[idx] = kind
	}

	batch := make([]ingestion_engine.UploadedFile, 0, len(headers))
	for idx, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read file %q", fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read file %q", fh.Filename))
			return
		}

		batch = append(batch, ingestion_engine.UploadedFile{
			Name: filepath.Base(fh.Filename),
			Kind: kinds[idx],
			MIME: partContentType(fh.Header.Get("Content-Type")),
			Size: fh.Size,
			Data: data,
		})
	}

	h.log.Info("upload batch accepted", zap.Int("files", len(batch)))

	records := h.ingestor.IngestBatch(r.Context(), batch)
	writeSuccess(w, map[string]any{"records": records})
}

// partContentType strips parameters like charset from a part's Content-Type.
func partContentType(ct string) string {
	if ct == "" {
		return ct
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}
