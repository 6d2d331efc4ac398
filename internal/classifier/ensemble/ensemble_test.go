package ensemble

import (
	"context"
	"testing"

	"github.com/sitesentry/sitesentry/internal/classifier/llm"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	result models.SubResult
}

func (f fakeLLM) Classify(_ context.Context, _ llm.Request) models.SubResult {
	return f.result
}

func TestClassify_AllClassifiersAgreeOnDefacement(t *testing.T) {
	p := New(config.NewDefaultClassifierConfig(), fakeLLM{result: models.SubResult{
		Tag: models.TagLLM, Classifier: "llm", Verdict: models.VerdictDefacement, Confidence: 0.9,
	}})

	req := Request{
		SiteURL:        "https://acme.test",
		NormalizedText: "hacked by shadow crew",
		BaselineVectors: map[models.VectorKind][]float32{
			models.VectorMain: {1, 0},
		},
		CurrentVectors: map[models.VectorKind][]float32{
			models.VectorMain: {0, 1},
		},
		HasBaseline:         true,
		SiteMetadataPresent: true,
	}

	result, weights := p.Classify(context.Background(), req)
	require.NotNil(t, result)
	assert.Equal(t, models.VerdictDefacement, result.Verdict)
	assert.Greater(t, result.Confidence, 0.5)
	assert.NotEmpty(t, weights)
	assert.Len(t, result.SubResults, 3)
}

func TestClassify_LLMAbstentionStillProducesVerdict(t *testing.T) {
	p := New(config.NewDefaultClassifierConfig(), fakeLLM{result: models.SubResult{Tag: models.TagAbstained, Classifier: "llm"}})

	req := Request{
		SiteURL:        "https://acme.test",
		NormalizedText: "welcome to our newsletter",
		BaselineVectors: map[models.VectorKind][]float32{
			models.VectorMain: {1, 0},
		},
		CurrentVectors: map[models.VectorKind][]float32{
			models.VectorMain: {1, 0},
		},
	}

	result, _ := p.Classify(context.Background(), req)
	assert.Equal(t, models.VerdictBenign, result.Verdict)
}

func TestClassify_NilLLMClientTreatedAsAbstention(t *testing.T) {
	p := New(config.NewDefaultClassifierConfig(), nil)
	req := Request{
		NormalizedText: "clean content",
		BaselineVectors: map[models.VectorKind][]float32{
			models.VectorMain: {1, 0},
		},
		CurrentVectors: map[models.VectorKind][]float32{
			models.VectorMain: {1, 0},
		},
	}

	result, _ := p.Classify(context.Background(), req)
	require.NotNil(t, result)
	var llmResult *models.SubResult
	for i := range result.SubResults {
		if result.SubResults[i].Classifier == "llm" {
			llmResult = &result.SubResults[i]
		}
	}
	require.NotNil(t, llmResult)
	assert.True(t, llmResult.Abstained())
}

func TestResolveWeights_LowAgreementDampensWeights(t *testing.T) {
	p := New(config.NewDefaultClassifierConfig(), nil)
	weights := p.resolveWeights(nil, 0.1)
	defaults := defaultBaseWeights()
	for k, v := range weights {
		assert.Less(t, v, defaults[k])
	}
}

func TestResolveWeights_HighAgreementKeepsDefaults(t *testing.T) {
	p := New(config.NewDefaultClassifierConfig(), nil)
	weights := p.resolveWeights(nil, 0.9)
	assert.Equal(t, defaultBaseWeights(), weights)
}

func TestWeightedVote_TiesBreakTowardDefacement(t *testing.T) {
	results := []models.SubResult{
		{Classifier: "rules", Verdict: models.VerdictDefacement, Confidence: 1},
		{Classifier: "semantic", Verdict: models.VerdictBenign, Confidence: 1},
	}
	effective := map[string]float64{"rules": 0.5, "semantic": 0.5}
	assert.Equal(t, models.VerdictDefacement, weightedVote(results, effective))
}
