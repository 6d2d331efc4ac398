package models

import "time"

// Fingerprints is the family of four content hashes computed over
// distinct projections of a page's content. Equality of any one
// implies equality of the corresponding projection.
type Fingerprints struct {
	ContentHash   string // Blake3 of normalized text
	StructureHash string // Blake2b of the DOM outline tuples
	TextBlockHash string // Blake2b of sorted text blocks
	SemanticHash  string // Blake2b of alphanumeric-only normalized text
}

// Equal reports whether all four fingerprints match, meaning the two
// snapshots are content-identical for defacement-detection purposes.
func (f Fingerprints) Equal(other Fingerprints) bool {
	return f.ContentHash == other.ContentHash &&
		f.StructureHash == other.StructureHash &&
		f.TextBlockHash == other.TextBlockHash &&
		f.SemanticHash == other.SemanticHash
}

// Snapshot is an immutable capture of a site's rendered state at a point
// in time. Verdict and Confidence may be back-filled once the
// classification pipeline runs.
type Snapshot struct {
	ID            string
	SiteID        string
	CapturedAt    time.Time
	HTTPStatus    int
	ResponseTime  time.Duration
	RawHTML       []byte // optional, subject to storage retention policy
	ExtractedText string
	Fingerprints  Fingerprints
	VectorRef     string // empty if no vector was computed

	PrevSimilarityScore *float64
	Verdict             Verdict
	Confidence          float64

	Truncated bool // set when content exceeded the configured size cap
	Depth     int  // crawl depth at which this snapshot was captured
}

// IsBaseline reports whether this snapshot is eligible to serve as the
// site's baseline.
func (s Snapshot) IsBaseline() bool {
	return s.Verdict.IsBaselineEligible()
}
