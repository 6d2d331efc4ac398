package detector

import (
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"
)

// Decision is the outcome of comparing a baseline against a new
// snapshot: the magnitude of change plus the similarity scores that
// produced it, so callers can log or persist the reasoning.
type Decision struct {
	Magnitude            models.ChangeMagnitude
	KeywordSimilarity    float64
	StructuralSimilarity float64
}

// Detector classifies a snapshot's change magnitude by walking a
// threshold decision tree over fingerprint and structural similarity.
type Detector struct {
	cfg config.DetectorConfig
}

func New(cfg config.DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Compare decides whether baseline and current differ meaningfully
// enough to invoke the classifier, using per-site threshold overrides
// when the site sets them (zero value means "use the global default").
func (d *Detector) Compare(site *models.Site, baseline, current *models.Fingerprints, baselineContent, currentContent *models.ExtractedContent) Decision {
	if baseline.Equal(*current) {
		return Decision{Magnitude: models.ChangeUnchanged, KeywordSimilarity: 1, StructuralSimilarity: 1}
	}

	similarityThreshold := d.cfg.SimilarityThreshold
	structuralThreshold := d.cfg.StructuralThreshold
	criticalThreshold := d.cfg.CriticalChangeThreshold
	if site != nil {
		if site.SimilarityThreshold > 0 {
			similarityThreshold = site.SimilarityThreshold
		}
		if site.StructuralThreshold > 0 {
			structuralThreshold = site.StructuralThreshold
		}
		if site.CriticalChangeThreshold > 0 {
			criticalThreshold = site.CriticalChangeThreshold
		}
	}

	keywordSim := KeywordSimilarity(baselineContent.Keywords, currentContent.Keywords)
	structuralSim := StructuralSimilarity(
		OutlineTuples(baselineContent.Outline),
		OutlineTuples(currentContent.Outline),
	)

	decision := Decision{KeywordSimilarity: keywordSim, StructuralSimilarity: structuralSim}

	switch {
	case keywordSim >= similarityThreshold && structuralSim >= structuralThreshold:
		decision.Magnitude = models.ChangeMinor
	case keywordSim < criticalThreshold || structuralSim < criticalThreshold:
		decision.Magnitude = models.ChangeSignificant
	default:
		decision.Magnitude = models.ChangeAmbiguous
	}

	return decision
}
