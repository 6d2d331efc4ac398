package rules

import (
	"testing"

	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify_HackedByPatternYieldsDefacement(t *testing.T) {
	c := New()
	result := c.Classify("this site was hacked by anonymous crew", nil)
	assert.Equal(t, models.VerdictDefacement, result.Verdict)
	assert.GreaterOrEqual(t, result.Confidence, 0.85)
	assert.NotEmpty(t, result.Evidence)
}

func TestClassify_SuspiciousKeywordYieldsSuspicious(t *testing.T) {
	c := New()
	result := c.Classify("system was attacked overnight", nil)
	assert.Equal(t, models.VerdictSuspicious, result.Verdict)
}

func TestClassify_CleanContentYieldsBenign(t *testing.T) {
	c := New()
	result := c.Classify("welcome to our quarterly newsletter", []string{"privacy policy", "contact us"})
	assert.Equal(t, models.VerdictBenign, result.Verdict)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestClassify_WholeWordMatchDoesNotFireOnSubstring(t *testing.T) {
	c := New()
	result := c.Classify("the unhackedable widget store", nil)
	assert.Equal(t, models.VerdictBenign, result.Verdict)
}

func TestClassify_TagAndClassifierAreSet(t *testing.T) {
	c := New()
	result := c.Classify("nothing here", nil)
	assert.Equal(t, models.TagRules, result.Tag)
	assert.Equal(t, "rules", result.Classifier)
}
