package hasher

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/sitesentry/sitesentry/internal/models"

	"golang.org/x/crypto/blake2b"
	"lukechampine.com/blake3"
)

// Fingerprinter derives the four content hashes from an
// already-extracted content projection.
type Fingerprinter struct{}

func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint computes content_hash, structure_hash, text_block_hash,
// and semantic_hash from an ExtractedContent.
func (f *Fingerprinter) Fingerprint(content *models.ExtractedContent) models.Fingerprints {
	return models.Fingerprints{
		ContentHash:   contentHash(content.NormalizedText),
		StructureHash: structureHash(content.Outline),
		TextBlockHash: textBlockHash(content.TextBlocks),
		SemanticHash:  semanticHash(content.NormalizedText),
	}
}

func contentHash(normalizedText string) string {
	sum := blake3.Sum256([]byte(normalizedText))
	return hex.EncodeToString(sum[:])
}

func structureHash(outline []models.OutlineNode) string {
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
	return blake2bHex(strings.Join(tuples, "|"))
}

func textBlockHash(blocks []string) string {
	sorted := append([]string(nil), blocks...)
	sort.Strings(sorted)
	return blake2bHex(strings.Join(sorted, "|"))
}

func semanticHash(normalizedText string) string {
	return blake2bHex(CollapseNonAlphanumeric(normalizedText))
}

func blake2bHex(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
