package semantic

import (
	"testing"

	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/stretchr/testify/assert"
)

func vecs(kind models.VectorKind, v []float32) map[models.VectorKind][]float32 {
	return map[models.VectorKind][]float32{kind: v}
}

func TestAnalyze_IdenticalVectorsAreLowRisk(t *testing.T) {
	c := New()
	v := []float32{1, 2, 3}
	a := c.Analyze(vecs(models.VectorMain, v), vecs(models.VectorMain, v))
	assert.True(t, a.Computable)
	assert.Equal(t, RiskLow, a.RiskLevel)
}

func TestAnalyze_OrthogonalVectorsAreCriticalRisk(t *testing.T) {
	c := New()
	a := c.Analyze(vecs(models.VectorMain, []float32{1, 0}), vecs(models.VectorMain, []float32{0, 1}))
	assert.Equal(t, RiskCritical, a.RiskLevel)
}

func TestAnalyze_MissingVectorsAreNotComputable(t *testing.T) {
	c := New()
	a := c.Analyze(map[models.VectorKind][]float32{}, map[models.VectorKind][]float32{})
	assert.False(t, a.Computable)
}

func TestVote_CriticalRiskVotesDefacement(t *testing.T) {
	a := Analysis{Computable: true, RiskLevel: RiskCritical}
	v := a.Vote()
	assert.Equal(t, models.VerdictDefacement, v.Verdict)
	assert.Equal(t, 0.8, v.Confidence)
}

func TestVote_LowRiskVotesBenign(t *testing.T) {
	a := Analysis{Computable: true, RiskLevel: RiskLow}
	v := a.Vote()
	assert.Equal(t, models.VerdictBenign, v.Verdict)
}

func TestVote_NotComputableAbstains(t *testing.T) {
	a := Analysis{Computable: false}
	v := a.Vote()
	assert.True(t, v.Abstained())
}

func TestAnalyze_TracksMaxDriftAcrossKinds(t *testing.T) {
	c := New()
	baseline := map[models.VectorKind][]float32{
		models.VectorMain:  {1, 0},
		models.VectorTitle: {1, 0},
		models.VectorMeta:  {1, 0},
	}
	current := map[models.VectorKind][]float32{
		models.VectorMain:  {1, 0},
		models.VectorTitle: {0, 1},
		models.VectorMeta:  {1, 0},
	}
	a := c.Analyze(baseline, current)
	assert.InDelta(t, 1.0, a.MaxDrift, 1e-6)
}
