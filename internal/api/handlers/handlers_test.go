package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/core/extract"
	"github.com/markagu-dev/Vectora/internal/core/history"
	"github.com/markagu-dev/Vectora/internal/core/ingestion_engine"
	"github.com/markagu-dev/Vectora/internal/models"
)

type stubChunker struct{}

func (stubChunker) Chunk(text string) []models.Chunk {
	var chunks []models.Chunk
	for i, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{Index: i, Text: line, TokenCount: 1})
	}
	return chunks
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(ctx context.Context, texts []string, dim int) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, dim)
	}
	return out, nil
}

type stubVectorStore struct {
	count uint64
}

func (s *stubVectorStore) EnsureCollection(ctx context.Context, name string, dims int, metric string) error {
	return nil
}

func (s *stubVectorStore) Upsert(ctx context.Context, collection string, points []core.Point) error {
	s.count += uint64(len(points))
	return nil
}

func (s *stubVectorStore) DeletePoints(ctx context.Context, collection string, ids []string) error {
	return nil
}

func (s *stubVectorStore) CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error) {
	return &models.CollectionInfo{Name: name, VectorCount: s.count, VectorSize: 4, DistanceMetric: "Cosine", Status: "green"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newUploadHandler(hist core.HistoryStore, vs core.VectorStore) *IngestHandler {
	cfg := &ingestion_engine.IngestConfig{
		TargetTokens:    500,
		OverlapTokens:   50,
		EmbedBatchSize:  10,
		UpsertBatchSize: 10,
		EmbedTimeout:    time.Second,
		UpsertTimeout:   time.Second,
		Concurrency:     2,
		CollectionName:  "test_collection",
		EmbedDim:        4,
		DistanceMetric:  "Cosine",
	}
	ing := ingestion_engine.NewIngestor(
		extract.NewExtractor(), stubChunker{}, stubEmbedder{}, vs, hist, nil,
		cfg, zap.NewNop())
	return NewIngestHandler(ing, zap.NewNop())
}

// multipartBody builds a multipart request body with one part per file, each
// carrying an explicit Content-Type header the way browsers send uploads.
func multipartBody(t *testing.T, files map[string]struct {
	contentType string
	data        []byte
}) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for name, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart(%s) error = %v", name, err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not a JSON envelope: %v\n%s", err, rr.Body.String())
	}
	return env
}

func TestUploadNoFiles(t *testing.T) {
	h := newUploadHandler(history.NewMemoryStore(), &stubVectorStore{})

	body, ct := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	h.Upload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	if env.Success || env.Error != "No files provided" {
		t.Errorf("envelope = %+v, want failure with No files provided", env)
	}
}

// One bad content type rejects the whole batch before any file is processed.
func TestUploadUnsupportedTypeRejectsBatch(t *testing.T) {
	hist := history.NewMemoryStore()
	h := newUploadHandler(hist, &stubVectorStore{})

	body, ct := multipartBody(t, map[string]struct {
		contentType string
		data        []byte
	}{
		"good.csv": {"text/csv", []byte("a,b\n1,2\n")},
		"bad.txt":  {"text/plain", []byte("plain text")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	h.Upload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	if !strings.Contains(env.Error, "Unsupported file type: text/plain") {
		t.Errorf("error = %q, want unsupported type message", env.Error)
	}
	records, err := hist.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("history has %d records after a rejected batch, want 0", len(records))
	}
}

func TestUploadCSVCompletes(t *testing.T) {
	h := newUploadHandler(history.NewMemoryStore(), &stubVectorStore{})

	body, ct := multipartBody(t, map[string]struct {
		contentType string
		data        []byte
	}{
		"ledger.csv": {"text/csv; charset=utf-8", []byte("name,amount\nalpha,10\nbeta,20\n")},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	h.Upload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatalf("success = false: %s", env.Error)
	}

	var data struct {
		Records []models.IngestionJob `json:"records"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(data.Records))
	}
	job := data.Records[0]
	if job.Status != models.StatusCompleted {
		t.Errorf("job status = %s (%s), want completed", job.Status, job.Error)
	}
	if job.FileName != "ledger.csv" || job.FileType != models.KindCSV {
		t.Errorf("job identity = %s/%s, want ledger.csv/csv", job.FileName, job.FileType)
	}
	if job.ChunkCount != 3 || job.VectorCount != 3 {
		t.Errorf("job counts chunk=%d vector=%d, want 3/3", job.ChunkCount, job.VectorCount)
	}
}

func TestHistoryReturnsRecordsAndStats(t *testing.T) {
	hist := history.NewMemoryStore()
	now := time.Now().UTC()
	done := now
	for _, j := range []models.IngestionJob{
		{ID: "j1", FileName: "a.pdf", FileType: models.KindPDF, Status: models.StatusCompleted,
			ChunkCount: 5, VectorCount: 5, CreatedAt: now, CompletedAt: &done},
		{ID: "j2", FileName: "b.csv", FileType: models.KindCSV, Status: models.StatusError,
			Error: "extraction failed", CreatedAt: now, CompletedAt: &done},
	} {
		job := j
		if err := hist.Append(context.Background(), &job); err != nil {
			t.Fatalf("Append(%s) error = %v", j.ID, err)
		}
	}

	h := NewDashboardHandler(hist, &stubVectorStore{}, "test_collection", zap.NewNop())
	rr := httptest.NewRecorder()
	h.History(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	var data struct {
		Records []models.IngestionJob `json:"records"`
		Stats   models.DashboardStats `json:"stats"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(data.Records))
	}
	// Newest append first.
	if data.Records[0].ID != "j2" {
		t.Errorf("records[0].ID = %s, want j2", data.Records[0].ID)
	}
	if data.Stats.CompletedJobs != 1 || data.Stats.FailedJobs != 1 {
		t.Errorf("stats = %+v, want 1 completed, 1 failed", data.Stats)
	}
}

func TestCollectionsReportsInfo(t *testing.T) {
	h := NewDashboardHandler(history.NewMemoryStore(), &stubVectorStore{count: 42}, "test_collection", zap.NewNop())
	rr := httptest.NewRecorder()
	h.Collections(rr, httptest.NewRequest(http.MethodGet, "/api/collections", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	var info models.CollectionInfo
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if info.Name != "test_collection" || info.VectorCount != 42 {
		t.Errorf("info = %+v, want test_collection with 42 vectors", info)
	}
}

func TestHealth(t *testing.T) {
	h := NewDashboardHandler(history.NewMemoryStore(), &stubVectorStore{}, "c", zap.NewNop())
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Errorf("success = false")
	}
}
