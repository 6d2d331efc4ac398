package config

// HasherConfig controls the extractor's ignore-set, block tags, and
// normalization patterns.
type HasherConfig struct {
	IgnoreTags        []string `json:"ignore_tags,omitempty" yaml:"ignore_tags,omitempty"`
	BlockTags         []string `json:"block_tags,omitempty" yaml:"block_tags,omitempty"`
	MaxOutlineDepth   int      `json:"max_outline_depth,omitempty" yaml:"max_outline_depth,omitempty" validate:"omitempty,min=1"`
	MaxContentBytes   int      `json:"max_content_bytes,omitempty" yaml:"max_content_bytes,omitempty" validate:"omitempty,min=1"`
	NormalizePatterns []string `json:"normalize_patterns,omitempty" yaml:"normalize_patterns,omitempty"`
	Stopwords         []string `json:"stopwords,omitempty" yaml:"stopwords,omitempty"`
}

func NewDefaultHasherConfig() HasherConfig {
	return HasherConfig{
		IgnoreTags: []string{"script", "style", "noscript", "meta", "link", "head", "comment", "svg", "path"},
		BlockTags: []string{
			"h1", "h2", "h3", "h4", "h5", "h6",
			"p", "div", "span", "article", "section", "main", "nav",
			"header", "footer", "aside", "blockquote", "li", "td", "th",
		},
		MaxOutlineDepth: 10,
		MaxContentBytes: 5 * 1024 * 1024,
		NormalizePatterns: []string{
			`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?`, // ISO-8601-like timestamps
			`(?i)csrf[_-]?token["'=:\s]+[a-z0-9._-]+`,                        // CSRF tokens
			`(?i)session[_-]?id["'=:\s]+[a-z0-9._-]+`,                        // session identifiers
			`(?i)nonce["'=:\s]+[a-z0-9._-]+`,                                 // nonces
		},
		Stopwords: []string{
			"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
			"of", "with", "by", "from", "up", "about", "into", "through",
			"during", "before", "after", "above", "below", "is", "are", "was",
			"were", "be", "been", "being", "have", "has", "had", "do", "does",
			"did", "will", "would", "could", "should", "may", "might", "must",
			"can", "this", "that", "these", "those", "i", "you", "he", "she",
			"it", "we", "they",
		},
	}
}
