package detector

import (
	"testing"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/stretchr/testify/assert"
)

func kwSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func TestKeywordSimilarity_IdenticalSetsIsOne(t *testing.T) {
	a := kwSet("acme", "widgets", "corp")
	assert.Equal(t, 1.0, KeywordSimilarity(a, a))
}

func TestKeywordSimilarity_DisjointSetsIsZero(t *testing.T) {
	a := kwSet("acme", "widgets")
	b := kwSet("hacked", "pwned")
	assert.Equal(t, 0.0, KeywordSimilarity(a, b))
}

func TestKeywordSimilarity_EmptyBothIsZero(t *testing.T) {
	assert.Equal(t, 0.0, KeywordSimilarity(kwSet(), kwSet()))
}

func TestStructuralSimilarity_IdenticalOutlineIsOne(t *testing.T) {
	tuples := []string{"h1:0", "p:0", "div:0.hero"}
	assert.Equal(t, 1.0, StructuralSimilarity(tuples, tuples))
}

func TestStructuralSimilarity_CompletelyDifferentIsLow(t *testing.T) {
	a := []string{"h1:0", "p:0"}
	b := []string{"table:0", "tr:1", "td:2", "iframe:0"}
	sim := StructuralSimilarity(a, b)
	assert.Less(t, sim, 0.5)
}

func newContent(keywords map[string]struct{}, outline []models.OutlineNode) *models.ExtractedContent {
	return &models.ExtractedContent{Keywords: keywords, Outline: outline}
}

func TestDetector_IdenticalFingerprintsAreUnchanged(t *testing.T) {
	d := New(config.NewDefaultDetectorConfig())
	fp := &models.Fingerprints{ContentHash: "a", StructureHash: "b", TextBlockHash: "c", SemanticHash: "d"}

	decision := d.Compare(nil, fp, fp, newContent(kwSet("x"), nil), newContent(kwSet("x"), nil))
	assert.Equal(t, models.ChangeUnchanged, decision.Magnitude)
}

func TestDetector_MinorChangeWhenBothSimilaritiesHigh(t *testing.T) {
	d := New(config.NewDefaultDetectorConfig())
	baselineFP := &models.Fingerprints{ContentHash: "a"}
	currentFP := &models.Fingerprints{ContentHash: "a2"}

	outline := []models.OutlineNode{{Tag: "h1", Depth: 0}, {Tag: "p", Depth: 0}}
	baseline := newContent(kwSet("acme", "widgets", "corp", "since", "2001"), outline)
	current := newContent(kwSet("acme", "widgets", "corp", "since", "2002"), outline)

	decision := d.Compare(nil, baselineFP, currentFP, baseline, current)
	assert.Equal(t, models.ChangeMinor, decision.Magnitude)
}

func TestDetector_SignificantChangeOnDefacementKeywords(t *testing.T) {
	d := New(config.NewDefaultDetectorConfig())
	baselineFP := &models.Fingerprints{ContentHash: "a"}
	currentFP := &models.Fingerprints{ContentHash: "b"}

	baseline := newContent(kwSet("acme", "widgets", "corp"), []models.OutlineNode{{Tag: "h1", Depth: 0}})
	current := newContent(kwSet("hacked", "by", "anon"), []models.OutlineNode{{Tag: "h1", Depth: 0}, {Tag: "marquee", Depth: 0}})

	decision := d.Compare(nil, baselineFP, currentFP, baseline, current)
	assert.Equal(t, models.ChangeSignificant, decision.Magnitude)
}

func TestDetector_SiteOverrideThresholdsTakePrecedence(t *testing.T) {
	d := New(config.NewDefaultDetectorConfig())
	site := &models.Site{SimilarityThreshold: 0.05, StructuralThreshold: 0.05}

	baselineFP := &models.Fingerprints{ContentHash: "a"}
	currentFP := &models.Fingerprints{ContentHash: "b"}
	outline := []models.OutlineNode{{Tag: "h1", Depth: 0}}
	baseline := newContent(kwSet("acme", "widgets"), outline)
	current := newContent(kwSet("acme", "gadgets"), outline)

	decision := d.Compare(site, baselineFP, currentFP, baseline, current)
	assert.Equal(t, models.ChangeMinor, decision.Magnitude)
}
