// Package ensemble runs the rule-based, semantic, and LLM
// sub-classifiers and aggregates their votes into a single
// ClassificationResult using a weighted-vote confidence calculation.
package ensemble

import (
	"context"
	"fmt"
	"time"

	"github.com/sitesentry/sitesentry/internal/classifier/llm"
	"github.com/sitesentry/sitesentry/internal/classifier/rules"
	"github.com/sitesentry/sitesentry/internal/classifier/semantic"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"
)

// LLMClassifier is the narrow port the pipeline needs from the LLM
// sub-classifier, so tests can substitute a fake without a network
// dependency.
type LLMClassifier interface {
	Classify(ctx context.Context, req llm.Request) models.SubResult
}

// Request bundles what the pipeline needs to run all three
// sub-classifiers and aggregate their votes.
type Request struct {
	SiteURL         string
	NormalizedText  string
	TextBlocks      []string
	ChangedContent  []string
	StaticContext   []string
	PreviousVerdict models.Verdict
	BaselineVectors map[models.VectorKind][]float32
	CurrentVectors  map[models.VectorKind][]float32

	HasBaseline         bool
	SiteMetadataPresent bool
	FalsePositiveRate   float64 // trailing-window rate for this site
	RecentAgreementRate float64 // trailing-window agreement rate for adaptive weighting
	PreviousWeights     map[string]float64
}

// Pipeline coordinates the three sub-classifiers.
type Pipeline struct {
	rules       *rules.Classifier
	semantic    *semantic.Classifier
	llm         LLMClassifier
	baseWeights map[string]float64
}

func New(cfg config.ClassifierConfig, llmClient LLMClassifier) *Pipeline {
	weights := cfg.BaseWeights
	if weights == nil {
		weights = defaultBaseWeights()
	}
	return &Pipeline{
		rules:       rules.New(),
		semantic:    semantic.New(),
		llm:         llmClient,
		baseWeights: weights,
	}
}

// defaultBaseWeights is the fallback per-classifier weighting, used
// when the classifier config carries none.
func defaultBaseWeights() map[string]float64 {
	return map[string]float64{"llm": 0.5, "semantic": 0.3, "rules": 0.2}
}

// Classify runs all three sub-classifiers (the LLM call is skipped
// entirely when the pipeline has no LLM client configured, treated the
// same as an abstention) and returns the aggregated result plus the
// weights that should be persisted onto the site for next time.
func (p *Pipeline) Classify(ctx context.Context, req Request) (*models.ClassificationResult, map[string]float64) {
	start := time.Now()

	ruleResult := p.rules.Classify(req.NormalizedText, req.TextBlocks)

	semanticAnalysis := p.semantic.Analyze(req.BaselineVectors, req.CurrentVectors)
	semanticResult := semanticAnalysis.Vote()

	llmResult := models.SubResult{Tag: models.TagAbstained, Classifier: "llm"}
	if p.llm != nil {
		llmResult = p.llm.Classify(ctx, llm.Request{
			SiteURL:               req.SiteURL,
			ChangedContent:        req.ChangedContent,
			StaticContext:         req.StaticContext,
			PreviousVerdict:       req.PreviousVerdict,
			SiteMetadataAvailable: req.SiteMetadataPresent,
		})
	}

	subResults := []models.SubResult{ruleResult, semanticResult, llmResult}

	weights := p.resolveWeights(req.PreviousWeights, req.RecentAgreementRate)
	effective := effectiveWeights(subResults, weights)

	finalVerdict := weightedVote(subResults, effective)
	confidence := calculateConfidence(subResults, effective, finalVerdict, req, semanticAnalysis.Computable)

	result := &models.ClassificationResult{
		Verdict:        finalVerdict,
		Confidence:     confidence,
		Reasoning:      buildReasoning(subResults, effective, confidence),
		SubResults:     subResults,
		WeightsUsed:    weights,
		ProcessingTime: time.Since(start),
	}

	return result, weights
}

func classifierName(r models.SubResult) string {
	if r.Classifier != "" {
		return r.Classifier
	}
	return string(r.Tag)
}

func effectiveWeights(results []models.SubResult, base map[string]float64) map[string]float64 {
	effective := make(map[string]float64, len(results))
	for _, r := range results {
		name := classifierName(r)
		if r.Abstained() {
			effective[name] = 0
			continue
		}
		effective[name] = base[name] * r.Confidence
	}
	return effective
}

// weightedVote sums each classifier's effective weight into its voted
// verdict and returns the argmax, breaking ties via Verdict.PreferredOver
// (defacement ≻ suspicious ≻ unclear ≻ benign).
func weightedVote(results []models.SubResult, effective map[string]float64) models.Verdict {
	votes := map[models.Verdict]float64{
		models.VerdictBenign:     0,
		models.VerdictSuspicious: 0,
		models.VerdictDefacement: 0,
		models.VerdictUnclear:    0,
	}

	for _, r := range results {
		if r.Abstained() {
			continue
		}
		votes[r.Verdict] += effective[classifierName(r)]
	}

	best := models.VerdictUnclear
	bestScore := -1.0
	for verdict, score := range votes {
		if score > bestScore || (score == bestScore && verdict.PreferredOver(best)) {
			best = verdict
			bestScore = score
		}
	}
	return best
}

// calculateConfidence combines agreement, clarity, context, semantic
// computability, and historical accuracy into a single weighted sum.
func calculateConfidence(results []models.SubResult, effective map[string]float64, finalVerdict models.Verdict, req Request, semanticComputable bool) float64 {
	agreement := agreementFactor(results, effective, finalVerdict)
	clarity := clarityFactor(results, finalVerdict)
	contextScore := contextFactor(req.HasBaseline, req.SiteMetadataPresent)
	historical := clip01(1 - req.FalsePositiveRate)
	semanticQuality := 0.0
	if semanticComputable {
		semanticQuality = 1.0
	}

	return clip01(0.30*agreement + 0.20*clarity + 0.20*contextScore + 0.15*historical + 0.15*semanticQuality)
}

func agreementFactor(results []models.SubResult, effective map[string]float64, finalVerdict models.Verdict) float64 {
	var total, concurring float64
	for _, r := range results {
		if r.Abstained() {
			continue
		}
		w := effective[classifierName(r)]
		total += w
		if r.Verdict == finalVerdict {
			concurring += w
		}
	}
	if total == 0 {
		return 0.5
	}
	return concurring / total
}

func clarityFactor(results []models.SubResult, finalVerdict models.Verdict) float64 {
	var sum float64
	var n int
	for _, r := range results {
		if r.Abstained() || r.Verdict != finalVerdict {
			continue
		}
		sum += r.Confidence
		n++
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

func contextFactor(hasBaseline, siteMetadataPresent bool) float64 {
	baselineScore := 0.3
	if hasBaseline {
		baselineScore = 0.8
	}
	metadataScore := 0.4
	if siteMetadataPresent {
		metadataScore = 0.7
	}
	return (baselineScore + metadataScore) / 2
}

// resolveWeights returns the weights to use for this classification:
// the site's persisted weights if set, otherwise the defaults, adjusted
// by an adaptive-weighting rule based on the site's trailing agreement
// rate.
func (p *Pipeline) resolveWeights(previous map[string]float64, recentAgreementRate float64) map[string]float64 {
	base := p.baseWeights
	if previous != nil {
		base = previous
	}

	adjusted := make(map[string]float64, len(base))
	for k, v := range base {
		adjusted[k] = v
	}

	if recentAgreementRate > 0 && recentAgreementRate < 0.3 {
		for k := range adjusted {
			adjusted[k] *= 0.8
		}
	}
	return adjusted
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func buildReasoning(results []models.SubResult, effective map[string]float64, confidence float64) string {
	reasoning := fmt.Sprintf("ensemble confidence %.2f", confidence)
	for _, r := range results {
		if r.Abstained() {
			continue
		}
		reasoning += fmt.Sprintf("; %s (w=%.2f): %s", classifierName(r), effective[classifierName(r)], r.Verdict)
	}
	return reasoning
}
