// Package vectorizer produces the semantic embeddings the classifier's
// semantic sub-classifier compares via cosine similarity. The
// embedding port itself is implemented against go-openai's embeddings
// endpoint.
package vectorizer

import (
	"context"
	"strings"

	"github.com/sitesentry/sitesentry/internal/config"
	appErrors "github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/sashabaranov/go-openai"
)

// Embedder is the embedding port: Embed(text, kind) → vector | error,
// deterministic for a fixed model.
type Embedder interface {
	Embed(ctx context.Context, text string, kind models.VectorKind) ([]float32, error)
}

// OpenAIEmbedder implements Embedder against go-openai's embeddings
// endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an embedder for the given API key and model
// name. An unrecognized model name falls back to
// text-embedding-3-small.
func NewOpenAIEmbedder(apiKey, model string) *OpenAIEmbedder {
	client := openai.NewClient(apiKey)
	return &OpenAIEmbedder{client: client, model: resolveModel(model)}
}

func resolveModel(model string) openai.EmbeddingModel {
	switch model {
	case string(openai.SmallEmbedding3):
		return openai.SmallEmbedding3
	case string(openai.LargeEmbedding3):
		return openai.LargeEmbedding3
	default:
		return openai.SmallEmbedding3
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string, kind models.VectorKind) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, appErrors.NewVectorizationError("embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, appErrors.NewVectorizationError("empty embedding response", nil)
	}
	return resp.Data[0].Embedding, nil
}

// Vectorizer preprocesses text and produces the snapshot's vectors,
// chunking long text on sentence boundaries and averaging chunk
// embeddings.
type Vectorizer struct {
	cfg      config.VectorizerConfig
	embedder Embedder
}

func New(cfg config.VectorizerConfig, embedder Embedder) *Vectorizer {
	return &Vectorizer{cfg: cfg, embedder: embedder}
}

// Vectorize embeds a piece of extracted text, chunking and averaging
// when it exceeds ChunkThreshold. A nil error with a nil vector never
// happens: embedding failure is always surfaced so the caller can log
// and proceed without a vector.
func (v *Vectorizer) Vectorize(ctx context.Context, text string, kind models.VectorKind) ([]float32, error) {
	prepared := v.preprocess(text)
	if prepared == "" {
		return nil, appErrors.NewVectorizationError("empty text after preprocessing", nil)
	}

	if len(prepared) <= v.cfg.ChunkThreshold {
		return v.embedder.Embed(ctx, prepared, kind)
	}

	chunks := chunkBySentence(prepared, v.cfg.ChunkThreshold)
	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := v.embedder.Embed(ctx, chunk, kind)
		if err != nil {
			continue
		}
		vectors = append(vectors, vec)
	}
	if len(vectors) == 0 {
		return nil, appErrors.NewVectorizationError("all chunk embeddings failed", nil)
	}
	return meanVector(vectors), nil
}

// preprocess normalizes whitespace, lowercases, and truncates to
// MaxContentLength. It removes no markup itself; the extractor has
// already stripped HTML upstream.
func (v *Vectorizer) preprocess(text string) string {
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))
	if v.cfg.MaxContentLength > 0 && len(text) > v.cfg.MaxContentLength {
		text = text[:v.cfg.MaxContentLength]
	}
	return strings.TrimSpace(text)
}

func meanVector(vectors [][]float32) []float32 {
	dim := len(vectors[0])
	mean := make([]float32, dim)
	for _, vec := range vectors {
		for i := 0; i < dim && i < len(vec); i++ {
			mean[i] += vec[i]
		}
	}
	n := float32(len(vectors))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
