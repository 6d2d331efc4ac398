// Package rules implements the rule-based sub-classifier: a keyword
// table and a pattern table, both weighted, scanned against a site's
// normalized text and evidence blocks.
package rules

import (
	"regexp"
	"strings"

	"github.com/sitesentry/sitesentry/internal/models"
)

// keywordWeights are matched case-insensitive and whole-word against
// the combined normalized text, keyed by literal token rather than a
// compiled regex per entry.
var keywordWeights = map[string]float64{
	"hacked":       0.9,
	"pwned":        0.8,
	"defaced":      0.95,
	"owned":        0.8,
	"unauthorized": 0.7,
	"breached":     0.7,
	"compromised":  0.7,
	"attacked":     0.6,
	"vandalized":   0.8,
	"hijacked":     0.8,
	"anonymous":    0.5,
}

// patternRule pairs a compiled regex with its prior weight, mirroring
// secretscanner.RegexRule's {ID, Regex} shape.
type patternRule struct {
	id     string
	weight float64
	regex  *regexp.Regexp
}

var patternRules = []patternRule{
	{"hacked_by", 0.95, regexp.MustCompile(`(?i)hacked\s+by\s+\w+`)},
	{"owned_by", 0.9, regexp.MustCompile(`(?i)owned\s+by\s+\w+`)},
	{"defaced_by", 0.95, regexp.MustCompile(`(?i)defaced\s+by\s+\w+`)},
	{"crypto_script", 0.9, regexp.MustCompile(`(?is)<script[^>]*>.*?crypto.*?</script>`)},
	{"suspicious_iframe", 0.8, regexp.MustCompile(`(?i)<iframe[^>]*src=["'][^"']*suspicious[^"']*["']`)},
	{"cryptocurrency_miner", 0.8, regexp.MustCompile(`(?i)cryptocurrency\s+miner`)},
	{"bitcoin_mining", 0.8, regexp.MustCompile(`(?i)bitcoin\s+mining`)},
}

// Classifier scans normalized text and evidence blocks against the
// keyword and pattern tables.
type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// Classify scores content against both tables and derives a verdict
// from the maximum matched weight: defacement at ≥0.85, suspicious at
// ≥0.6, benign otherwise.
func (c *Classifier) Classify(normalizedText string, textBlocks []string) models.SubResult {
	combined := strings.ToLower(strings.Join(append([]string{normalizedText}, textBlocks...), " "))

	var evidence []string
	maxScore := 0.0

	for keyword, weight := range keywordWeights {
		if !containsWholeWord(combined, keyword) {
			continue
		}
		evidence = append(evidence, "keyword: "+keyword)
		if weight > maxScore {
			maxScore = weight
		}
	}

	for _, rule := range patternRules {
		if rule.regex.MatchString(combined) {
			evidence = append(evidence, "pattern: "+rule.id)
			if rule.weight > maxScore {
				maxScore = rule.weight
			}
		}
	}

	verdict := models.VerdictBenign
	switch {
	case maxScore >= 0.85:
		verdict = models.VerdictDefacement
	case maxScore >= 0.6:
		verdict = models.VerdictSuspicious
	}

	return models.SubResult{
		Tag:        models.TagRules,
		Classifier: "rules",
		Verdict:    verdict,
		Confidence: maxScore,
		Evidence:   evidence,
		Reasoning:  reasoningFor(evidence),
	}
}

func containsWholeWord(text, word string) bool {
	idx := strings.Index(text, word)
	for idx != -1 {
		before := idx == 0 || !isWordByte(text[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx == len(text) || !isWordByte(text[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(text[idx+1:], word)
		if next == -1 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func reasoningFor(evidence []string) string {
	if len(evidence) == 0 {
		return "no defacement indicators matched"
	}
	shown := evidence
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return "matched " + strings.Join(shown, ", ")
}
