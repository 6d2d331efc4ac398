package detector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// OutlineTuples renders an outline into the `tag:depth[.class][#id]`
// tuple strings the structural hash and structural similarity both
// operate on, so the two stay consistent with each other.
func OutlineTuples(outline []models.OutlineNode) []string {
	tuples := make([]string, 0, len(outline))
	for _, node := range outline {
		classes := append([]string(nil), node.Classes...)
		sort.Strings(classes)

		tuple := fmt.Sprintf("%s:%d", node.Tag, node.Depth)
		if len(classes) > 0 {
			tuple += "." + strings.Join(classes, ".")
		}
		if node.ID != "" {
			tuple += "#" + node.ID
		}
		tuples = append(tuples, tuple)
	}
	return tuples
}

// StructuralSimilarity is 1 minus the normalized edit distance between
// two outline tuple sequences, using diffmatchpatch's line-mode diff
// (each tuple treated as one "line") so the distance is measured in
// whole tuples rather than characters.
func StructuralSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	dmp := diffmatchpatch.New()
	textA := strings.Join(a, "\n") + "\n"
	textB := strings.Join(b, "\n") + "\n"

	// Map each distinct tuple to one rune so Levenshtein distance is
	// measured in whole tuples rather than characters.
	charsA, charsB, _ := dmp.DiffLinesToChars(textA, textB)
	diffs := dmp.DiffMain(charsA, charsB, false)

	distance := dmp.DiffLevenshtein(diffs)

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}

	normalized := float64(distance) / float64(maxLen)
	return clip01(1 - normalized)
}
