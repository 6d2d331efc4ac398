package hasher

import (
	"regexp"
	"strings"
)

// Normalizer collapses whitespace, lowercases, and strips patterns
// known to change benignly between fetches (timestamps, CSRF tokens,
// session ids, nonces) so those fields don't trip the change detector.
type Normalizer struct {
	patterns []*regexp.Regexp
}

func NewNormalizer(patternStrs []string) *Normalizer {
	patterns := make([]*regexp.Regexp, 0, len(patternStrs))
	for _, p := range patternStrs {
		if re, err := regexp.Compile(p); err == nil {
			patterns = append(patterns, re)
		}
	}
	return &Normalizer{patterns: patterns}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func (n *Normalizer) Normalize(text string) string {
	for _, re := range n.patterns {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.ToLower(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// CollapseNonAlphanumeric strips everything but letters and digits,
// used by semantic_hash to catch formatting-only edits.
func CollapseNonAlphanumeric(text string) string {
	return strings.Trim(nonAlnumRe.ReplaceAllString(strings.ToLower(text), ""), "")
}
