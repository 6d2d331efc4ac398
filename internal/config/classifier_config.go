package config

// ClassifierConfig controls the classification pipeline's rule tables,
// ensemble weights, and LLM classifier limits.
type ClassifierConfig struct {
	BaseWeights           map[string]float64 `json:"base_weights,omitempty" yaml:"base_weights,omitempty"`
	ConfidenceThresholds  map[string]float64 `json:"confidence_thresholds,omitempty" yaml:"confidence_thresholds,omitempty"`
	LLMTimeoutSeconds     int                `json:"llm_timeout_seconds,omitempty" yaml:"llm_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	LLMMaxTokens          int                `json:"llm_max_tokens,omitempty" yaml:"llm_max_tokens,omitempty" validate:"omitempty,min=1"`
	LLMModel              string             `json:"llm_model,omitempty" yaml:"llm_model,omitempty"`
	AdaptiveWeighting     bool               `json:"adaptive_weighting" yaml:"adaptive_weighting"`
}

func NewDefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		BaseWeights: map[string]float64{
			"llm":      0.5,
			"semantic": 0.3,
			"rules":    0.2,
		},
		ConfidenceThresholds: map[string]float64{
			"very_high": 0.8,
			"high":      0.6,
			"medium":    0.4,
			"low":       0.2,
		},
		LLMTimeoutSeconds: 60,
		LLMMaxTokens:      512,
		LLMModel:          "gpt-4o-mini",
		AdaptiveWeighting: true,
	}
}

// VectorizerConfig controls text preprocessing before embedding.
type VectorizerConfig struct {
	MaxContentLength int    `json:"max_content_length,omitempty" yaml:"max_content_length,omitempty" validate:"omitempty,min=1"`
	ChunkThreshold   int    `json:"chunk_threshold,omitempty" yaml:"chunk_threshold,omitempty" validate:"omitempty,min=1"`
	Dimension        int    `json:"dimension,omitempty" yaml:"dimension,omitempty" validate:"omitempty,min=1"`
	Model            string `json:"model,omitempty" yaml:"model,omitempty"`
}

func NewDefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxContentLength: 8000,
		ChunkThreshold:   2000,
		Dimension:        1536,
		Model:            "text-embedding-3-small",
	}
}
