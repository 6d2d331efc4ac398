package vectorizer

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls   []string
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string, _ models.VectorKind) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1}, nil
}

func TestChunkBySentence_KeepsChunksWithinMaxLen(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one closes it out."
	chunks := chunkBySentence(text, 30)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 30)
	}
	assert.Greater(t, len(chunks), 1)
}

func TestChunkBySentence_HardCutsOversizedSentence(t *testing.T) {
	text := strings.Repeat("a", 100) + "."
	chunks := chunkBySentence(text, 40)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 40)
	}
}

func TestChunkBySentence_ShortTextIsSingleChunk(t *testing.T) {
	chunks := chunkBySentence("short text", 100)
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestHardCut_NeverSplitsAMultibyteRune(t *testing.T) {
	text := strings.Repeat("مرحبا", 20) + "."
	parts := hardCut(text, 17)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), "chunk %q is not valid UTF-8", p)
	}
	assert.Equal(t, text, strings.Join(parts, ""))
}

func TestVectorize_ShortTextEmbedsOnce(t *testing.T) {
	embedder := &fakeEmbedder{}
	v := New(config.VectorizerConfig{MaxContentLength: 1000, ChunkThreshold: 1000}, embedder)

	vec, err := v.Vectorize(context.Background(), "Hello World", models.VectorMain)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, vec)
	assert.Len(t, embedder.calls, 1)
}

func TestVectorize_LongTextChunksAndAverages(t *testing.T) {
	embedder := &fakeEmbedder{
		vectors: map[string][]float32{},
	}
	cfg := config.VectorizerConfig{MaxContentLength: 10000, ChunkThreshold: 20}
	v := New(cfg, embedder)

	text := "one two three four five. six seven eight nine ten. eleven twelve thirteen fourteen."
	_, err := v.Vectorize(context.Background(), text, models.VectorMain)
	require.NoError(t, err)
	assert.Greater(t, len(embedder.calls), 1)
}

func TestVectorize_EmptyTextAfterPreprocessingFails(t *testing.T) {
	embedder := &fakeEmbedder{}
	v := New(config.VectorizerConfig{MaxContentLength: 100, ChunkThreshold: 100}, embedder)

	_, err := v.Vectorize(context.Background(), "   ", models.VectorMain)
	assert.Error(t, err)
}

func TestVectorize_TruncatesToMaxContentLength(t *testing.T) {
	embedder := &fakeEmbedder{}
	v := New(config.VectorizerConfig{MaxContentLength: 5, ChunkThreshold: 1000}, embedder)

	_, err := v.Vectorize(context.Background(), "abcdefghij", models.VectorMain)
	require.NoError(t, err)
	require.Len(t, embedder.calls, 1)
	assert.Equal(t, "abcde", embedder.calls[0])
}

func TestMeanVector_AveragesElementwise(t *testing.T) {
	mean := meanVector([][]float32{{1, 2, 3}, {3, 4, 5}})
	assert.Equal(t, []float32{2, 3, 4}, mean)
}
