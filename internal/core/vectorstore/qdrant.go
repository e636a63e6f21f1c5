package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/models"
)

// QdrantStore writes points to a Qdrant instance over gRPC.
type QdrantStore struct {
	client *qdrant.Client
}

func NewQdrantStore(host string, port int, apiKey string) (*QdrantStore, error) {
	cl, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &QdrantStore{client: cl}, nil
}

func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func parseDistance(metric string) (qdrant.Distance, error) {
	switch strings.ToLower(metric) {
	case "cosine":
		return qdrant.Distance_Cosine, nil
	case "euclid", "euclidean":
		return qdrant.Distance_Euclid, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("unknown distance metric %q", metric)
	}
}

// EnsureCollection creates the collection if absent. If it already exists,
// its dimensionality and metric must match the configuration; a mismatch
// fails fast instead of letting Qdrant reject writes mid-upsert.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, dims int, metric string) error {
	distance, err := parseDistance(metric)
	if err != nil {
		return err
	}

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("collection exists check: %w", err)
	}

	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dims),
				Distance: distance,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %q: %w", name, err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("describe collection %q: %w", name, err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return fmt.Errorf("%w: collection %q has no single-vector config", core.ErrCollectionMismatch, name)
	}
	if params.GetSize() != uint64(dims) || params.GetDistance() != distance {
		return fmt.Errorf("%w: collection %q has size=%d distance=%s, want size=%d distance=%s",
			core.ErrCollectionMismatch, name,
			params.GetSize(), params.GetDistance(), dims, distance)
	}
	return nil
}

// Upsert writes the points with wait=true so a successful return means the
// vectors are visible. Point IDs are stable, so retries and re-ingestion
// overwrite rather than duplicate.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []core.Point) error {
	if len(points) == 0 {
		return nil
	}

	qps := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		qps = append(qps, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(p.Payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qps,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(points), err)
	}
	return nil
}

// DeletePoints removes the given point IDs; absent IDs are ignored by Qdrant,
// which makes the compensating delete safe to over-approximate.
func (s *QdrantStore) DeletePoints(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pids := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pids = append(pids, qdrant.NewID(id))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pids...),
	})
	if err != nil {
		return fmt.Errorf("delete %d points: %w", len(ids), err)
	}
	return nil
}

func (s *QdrantStore) CollectionInfo(ctx context.Context, name string) (*models.CollectionInfo, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("collection exists check: %w", err)
	}
	if !exists {
		return &models.CollectionInfo{Name: name, Status: "not_found"}, nil
	}

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("describe collection %q: %w", name, err)
	}

	out := &models.CollectionInfo{
		Name:        name,
		VectorCount: info.GetPointsCount(),
		Status:      strings.ToLower(info.GetStatus().String()),
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		out.VectorSize = int(params.GetSize())
		out.DistanceMetric = params.GetDistance().String()
	}
	return out, nil
}

var _ core.VectorStore = (*QdrantStore)(nil)
