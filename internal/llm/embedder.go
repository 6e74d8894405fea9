package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// Embedder turns text chunks into embedding vectors. Embedding generation
// is delegated entirely to the remote service.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

func NewOpenAIEmbedder() *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(),
		model:  openai.EmbeddingModelTextEmbedding3Small,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}

	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Data))
	}

	vectors := make([][]float64, len(res.Data))
	for _, item := range res.Data {
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}
