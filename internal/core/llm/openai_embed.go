package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/markagu-dev/Vectora/internal/core"
)

type OpenAIEmbedder struct {
	client    *openai.Client
	modelName string
}

func NewOpenAIEmbedder(apiKey, modelName string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{
		client:    openai.NewClient(apiKey),
		modelName: modelName,
	}, nil
}

// EmbedTexts embeds all texts in one request; the response preserves input
// order, which the orchestrator relies on to zip chunks to vectors.
func (o *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string, dim int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(o.modelName),
	}
	if dim > 0 {
		req.Dimensions = dim
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

var _ core.EmbeddingProvider = (*OpenAIEmbedder)(nil)
