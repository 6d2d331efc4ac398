package vectorizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// sentenceEnders are the boundary runes chunkBySentence splits on. Kept
// simple and locale-agnostic since the extractor's normalized text has
// already dropped most markup and non-latin punctuation is handled by
// falling back to the max-size cut below.
var sentenceEnders = []byte{'.', '!', '?'}

// chunkBySentence splits text into chunks no larger than maxLen,
// preferring to break on a sentence boundary. Sentences longer than
// maxLen are hard-cut at maxLen so no chunk ever exceeds it.
func chunkBySentence(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	sentences := splitSentences(text)
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, sentence := range sentences {
		if len(sentence) > maxLen {
			flush()
			chunks = append(chunks, hardCut(sentence, maxLen)...)
			continue
		}
		if current.Len()+len(sentence) > maxLen {
			flush()
		}
		current.WriteString(sentence)
		current.WriteByte(' ')
	}
	flush()

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if isSentenceEnder(text[i]) {
			end := i + 1
			sentences = append(sentences, text[start:end])
			start = end
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSentenceEnder(b byte) bool {
	for _, e := range sentenceEnders {
		if b == e {
			return true
		}
	}
	return false
}

// hardCut splits text into pieces no longer than maxLen, cutting at the
// nearest normalization-safe boundary at or before maxLen so a
// multi-byte rune or a combining-character sequence is never split
// across chunk boundaries, which would corrupt non-Latin content (e.g.
// vowel marks or accents on the last character of a cut).
func hardCut(text string, maxLen int) []string {
	var parts []string
	for len(text) > maxLen {
		n, _ := norm.NFC.Span([]byte(text[:maxLen]), false)
		if n == 0 {
			n = maxLen
		}
		parts = append(parts, text[:n])
		text = text[n:]
	}
	if len(text) > 0 {
		parts = append(parts, text)
	}
	return parts
}
