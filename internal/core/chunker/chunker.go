package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/models"
)

// TokenChunker splits text into overlapping token-bounded chunks. It counts
// tokens with the same encoding the embedding model uses; bounding by
// characters or words instead would silently truncate downstream.
type TokenChunker struct {
	targetTokens  int
	overlapTokens int
	tokenizer     *tiktoken.Tiktoken
}

// New builds a chunker for the given tiktoken encoding (e.g. "cl100k_base").
func New(encoding string, targetTokens, overlapTokens int) (*TokenChunker, error) {
	if targetTokens <= 0 {
		return nil, fmt.Errorf("%w: target tokens must be positive, got %d", core.ErrChunking, targetTokens)
	}
	if overlapTokens < 0 || overlapTokens >= targetTokens {
		return nil, fmt.Errorf("%w: overlap %d out of range for target %d", core.ErrChunking, overlapTokens, targetTokens)
	}

	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: get encoding %q: %v", core.ErrChunking, encoding, err)
	}

	return &TokenChunker{
		targetTokens:  targetTokens,
		overlapTokens: overlapTokens,
		tokenizer:     tke,
	}, nil
}

// Chunk splits text into chunks of at most targetTokens tokens, each chunk
// after the first starting overlapTokens before the end of the previous one.
// Empty text yields zero chunks; the last chunk is never padded. The result
// is deterministic for identical inputs and parameters.
func (c *TokenChunker) Chunk(text string) []models.Chunk {
	tokens := c.tokenizer.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return nil
	}

	step := c.targetTokens - c.overlapTokens
	var chunks []models.Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + c.targetTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, models.Chunk{
			Index:      len(chunks),
			Text:       c.tokenizer.Decode(tokens[start:end]),
			TokenCount: end - start,
		})
		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// CountTokens reports the token length of text under the chunker's encoding.
func (c *TokenChunker) CountTokens(text string) int {
	return len(c.tokenizer.Encode(text, nil, nil))
}

var _ core.Chunker = (*TokenChunker)(nil)
