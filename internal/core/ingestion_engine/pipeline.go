package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/core/vectorstore"
	"github.com/markagu-dev/Vectora/internal/models"
)

// Ingestor coordinates the per-file pipeline: extract → chunk → embed →
// upsert, tracking each job through pending → processing → completed|error.
// Files within a batch are independent; one file's failure never touches a
// sibling's state.
type Ingestor struct {
	extractor core.TextExtractor
	chunker   core.Chunker
	embedder  core.EmbeddingProvider
	vectors   core.VectorStore
	history   core.HistoryStore
	archive   core.ObjectClient // optional, nil disables archiving
	cfg       *IngestConfig
	log       *zap.Logger
}

func NewIngestor(
	extractor core.TextExtractor,
	chk core.Chunker,
	embedder core.EmbeddingProvider,
	vectors core.VectorStore,
	history core.HistoryStore,
	archive core.ObjectClient,
	cfg *IngestConfig,
	log *zap.Logger,
) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		chunker:   chk,
		embedder:  embedder,
		vectors:   vectors,
		history:   history,
		archive:   archive,
		cfg:       cfg,
		log:       log,
	}
}

// IngestBatch runs the pipeline for every file, up to cfg.Concurrency at a
// time, and returns one job record per input in input order. Partial batch
// success is the normal case: the returned records carry per-file outcomes.
func (i *Ingestor) IngestBatch(ctx context.Context, files []UploadedFile) []models.IngestionJob {
	results := make([]models.IngestionJob, len(files))

	g := new(errgroup.Group)
	g.SetLimit(i.cfg.Concurrency)
	for idx, f := range files {
		g.Go(func() error {
			results[idx] = i.processOne(ctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// processOne drives a single file to a terminal state. It never returns an
// error: failures end up in the job record.
func (i *Ingestor) processOne(ctx context.Context, file UploadedFile) models.IngestionJob {
	job := models.IngestionJob{
		ID:        uuid.NewString(),
		FileName:  file.Name,
		FileType:  file.Kind,
		FileSize:  file.Size,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	log := i.log.With(
		zap.String("job_id", job.ID),
		zap.String("file", file.Name),
		zap.String("kind", string(file.Kind)),
	)

	if err := i.history.Append(ctx, &job); err != nil {
		log.Error("append history record", zap.Error(err))
	}

	job.Status = models.StatusProcessing
	i.updateHistory(&job, log)

	if err := ctx.Err(); err != nil {
		return i.fail(&job, errors.New("Cancelled"), log)
	}

	i.archiveRaw(ctx, &job, file, log)

	text, err := i.extractor.Extract(ctx, file.Data, file.Kind)
	if err != nil {
		return i.fail(&job, core.ExtractionError(file.Name, err), log)
	}

	chunks := i.chunker.Chunk(text)
	job.ChunkCount = len(chunks)
	log.Info("extracted and chunked", zap.Int("chunks", len(chunks)))

	// Empty extractable text (e.g. an image-only PDF) is a valid, trivial
	// result: the job completes with zero chunks and zero vectors.
	if len(chunks) == 0 {
		return i.complete(&job, log)
	}

	if err := i.ensureCollection(ctx); err != nil {
		return i.fail(&job, core.VectorStoreError(file.Name, err), log)
	}

	vectors, err := i.embedChunks(ctx, chunks)
	if err != nil {
		return i.fail(&job, core.EmbeddingError(file.Name, err), log)
	}

	points := buildPoints(file, chunks, vectors, job.CreatedAt)
	upserted, err := i.upsertPoints(ctx, points)
	if err != nil {
		// Remove whatever this job managed to write so no vectors remain
		// attributed to an errored job.
		if upserted > 0 {
			i.compensate(file.Name, len(chunks), log)
		}
		return i.fail(&job, core.VectorStoreError(file.Name, err), log)
	}

	job.VectorCount = len(points)
	return i.complete(&job, log)
}

func (i *Ingestor) ensureCollection(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, i.cfg.UpsertTimeout)
	defer cancel()
	return i.vectors.EnsureCollection(cctx, i.cfg.CollectionName, i.cfg.EmbedDim, i.cfg.DistanceMetric)
}

// embedChunks batches the chunk texts through the embedding provider,
// preserving chunk order end to end. Each batch gets one retry.
func (i *Ingestor) embedChunks(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	out := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += i.cfg.EmbedBatchSize {
		end := start + i.cfg.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		var vecs [][]float32
		err := callWithRetry(ctx, i.cfg.EmbedTimeout, func(cctx context.Context) error {
			var err error
			vecs, err = i.embedder.EmbedTexts(cctx, texts, i.cfg.EmbedDim)
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// upsertPoints writes points in bounded batches and reports how many points
// made it in before any failure, so the caller can compensate.
func (i *Ingestor) upsertPoints(ctx context.Context, points []core.Point) (int, error) {
	upserted := 0
	for start := 0; start < len(points); start += i.cfg.UpsertBatchSize {
		end := start + i.cfg.UpsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]

		err := callWithRetry(ctx, i.cfg.UpsertTimeout, func(cctx context.Context) error {
			return i.vectors.Upsert(cctx, i.cfg.CollectionName, batch)
		})
		if err != nil {
			return upserted, err
		}
		upserted += len(batch)
	}
	return upserted, nil
}

// compensate deletes every point the job may have written. It runs on a fresh
// context: the pipeline context may already be the thing that failed.
func (i *Ingestor) compensate(fileName string, chunkCount int, log *zap.Logger) {
	cctx, cancel := context.WithTimeout(context.Background(), i.cfg.UpsertTimeout)
	defer cancel()

	ids := vectorstore.PointIDs(fileName, chunkCount)
	if err := i.vectors.DeletePoints(cctx, i.cfg.CollectionName, ids); err != nil {
		// The invariant is now violated for this job; nothing more we can
		// do here beyond making it loud.
		log.Error("compensating delete failed, partial vectors remain", zap.Error(err))
		return
	}
	log.Warn("compensating delete removed partial vectors", zap.Int("points", len(ids)))
}

func (i *Ingestor) archiveRaw(ctx context.Context, job *models.IngestionJob, file UploadedFile, log *zap.Logger) {
	if i.archive == nil || i.cfg.ArchiveBucket == "" {
		return
	}
	key := fmt.Sprintf("%s/%s", job.ID, file.Name)
	if _, err := i.archive.UploadFile(ctx, i.cfg.ArchiveBucket, key, file.Data, file.MIME); err != nil {
		// Archive is best effort; the job proceeds regardless.
		log.Warn("raw upload archive failed", zap.Error(err))
	}
}

// buildPoints zips chunks to vectors positionally and attaches the payload
// the portal's retrieval side expects.
func buildPoints(file UploadedFile, chunks []models.Chunk, vectors [][]float32, createdAt time.Time) []core.Point {
	points := make([]core.Point, 0, len(chunks))
	for idx, c := range chunks {
		points = append(points, core.Point{
			ID:     vectorstore.PointID(file.Name, c.Index),
			Vector: vectors[idx],
			Payload: map[string]any{
				"text":       c.Text,
				"source":     "manual_upload",
				"fileName":   file.Name,
				"fileType":   string(file.Kind),
				"chunkIndex": c.Index,
				"uploadedAt": createdAt.Format(time.RFC3339),
			},
		})
	}
	return points
}

// complete finalizes the job. Counts and completedAt land in the history
// store in the same update as the terminal status.
func (i *Ingestor) complete(job *models.IngestionJob, log *zap.Logger) models.IngestionJob {
	now := time.Now().UTC()
	job.Status = models.StatusCompleted
	job.VectorCount = job.ChunkCount
	job.CompletedAt = &now
	i.updateHistory(job, log)
	log.Info("ingestion completed",
		zap.Int("chunks", job.ChunkCount),
		zap.Int("vectors", job.VectorCount),
		zap.Duration("took", now.Sub(job.CreatedAt)))
	return *job
}

func (i *Ingestor) fail(job *models.IngestionJob, cause error, log *zap.Logger) models.IngestionJob {
	now := time.Now().UTC()
	job.Status = models.StatusError
	job.Error = cause.Error()
	job.VectorCount = 0
	job.CompletedAt = &now
	i.updateHistory(job, log)
	log.Error("ingestion failed", zap.String("cause", cause.Error()))
	return *job
}

// updateHistory writes on a fresh context so terminal records land even when
// the request context is gone.
func (i *Ingestor) updateHistory(job *models.IngestionJob, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := i.history.Update(ctx, job); err != nil {
		log.Error("update history record", zap.Error(err), zap.String("status", job.Status))
	}
}

// callWithRetry runs fn with a bounded timeout and retries exactly once on
// failure, unless the parent context is already done.
func callWithRetry(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	err := fn(cctx)
	cancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	rctx, rcancel := context.WithTimeout(ctx, timeout)
	defer rcancel()
	return fn(rctx)
}
