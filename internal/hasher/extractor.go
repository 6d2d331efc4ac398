// Package hasher parses raw HTML into a stable content representation
// and derives fingerprints robust to irrelevant churn. Raw bytes are
// transcoded to UTF-8 by sniffing their charset first, then walked
// with goquery, then hashed into distinct projections with BLAKE3 and
// BLAKE2b.
package hasher

import (
	"bytes"
	"sort"
	"strings"

	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/errors"
	"github.com/sitesentry/sitesentry/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

var defaultIgnoreSet = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "meta": {},
	"link": {}, "head": {}, "comment": {}, "svg": {}, "path": {},
}

// Extractor turns raw HTML bytes into an ExtractedContent, applying the
// configured ignore-set, block-tag set, and normalization patterns.
type Extractor struct {
	cfg        config.HasherConfig
	ignoreSet  map[string]struct{}
	blockSet   map[string]struct{}
	stopwords  map[string]struct{}
	normalizer *Normalizer
}

// NewExtractor builds an Extractor from HasherConfig, defaulting empty
// tag sets to the built-in ignore-set rather than treating them as
// "ignore nothing".
func NewExtractor(cfg config.HasherConfig) *Extractor {
	ignore := defaultIgnoreSet
	if len(cfg.IgnoreTags) > 0 {
		ignore = toSet(cfg.IgnoreTags)
	}
	block := toSet(cfg.BlockTags)
	stop := toSet(cfg.Stopwords)

	return &Extractor{
		cfg:        cfg,
		ignoreSet:  ignore,
		blockSet:   block,
		stopwords:  stop,
		normalizer: NewNormalizer(cfg.NormalizePatterns),
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}

// Extract parses html and produces the extracted content plus a
// truncated flag: content over MaxContentBytes is cut before parsing
// rather than rejected, since extraction must never fail outright.
func (e *Extractor) Extract(url string, html []byte) (*models.ExtractedContent, bool, error) {
	truncated := false
	if e.cfg.MaxContentBytes > 0 && len(html) > e.cfg.MaxContentBytes {
		html = html[:e.cfg.MaxContentBytes]
		truncated = true
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(html), "text/html")
	if err != nil {
		return nil, truncated, errors.NewExtractionError(url, "charset detection failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, truncated, errors.NewExtractionError(url, "malformed HTML", err)
	}

	content := &models.ExtractedContent{
		Keywords: make(map[string]struct{}),
	}
	content.Title = strings.TrimSpace(doc.Find("title").First().Text())
	content.MetaDescription = e.metaDescription(doc)
	content.Outline = e.buildOutline(doc.Selection)
	content.TextBlocks = e.blockText(doc.Selection)
	content.Links = e.links(doc.Selection)
	content.Forms = e.forms(doc.Selection)

	normalized := e.normalizer.Normalize(strings.Join(content.TextBlocks, " "))
	content.NormalizedText = normalized
	for _, kw := range tokenize(normalized) {
		if _, stop := e.stopwords[kw]; stop {
			continue
		}
		content.Keywords[kw] = struct{}{}
	}

	return content, truncated, nil
}

func (e *Extractor) metaDescription(doc *goquery.Document) string {
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return strings.TrimSpace(desc)
}

// buildOutline walks the DOM depth-first, dropping ignored tags and
// stopping at MaxOutlineDepth to avoid runaway nesting on adversarial
// markup.
func (e *Extractor) buildOutline(root *goquery.Selection) []models.OutlineNode {
	maxDepth := e.cfg.MaxOutlineDepth
	if maxDepth <= 0 {
		maxDepth = 10
	}

	var nodes []models.OutlineNode
	var walk func(sel *goquery.Selection, depth int)
	walk = func(sel *goquery.Selection, depth int) {
		if depth > maxDepth {
			return
		}
		sel.Contents().Each(func(_ int, child *goquery.Selection) {
			tag := goquery.NodeName(child)
			if tag == "" || tag == "#text" || tag == "#comment" {
				return
			}
			if _, ignored := e.ignoreSet[tag]; ignored {
				return
			}

			id, _ := child.Attr("id")
			classes := splitClasses(child.AttrOr("class", ""))
			nodes = append(nodes, models.OutlineNode{
				Tag: tag, Depth: depth, Classes: classes, ID: id,
			})
			walk(child, depth+1)
		})
	}
	walk(root, 0)
	return nodes
}

func splitClasses(raw string) []string {
	fields := strings.Fields(raw)
	sort.Strings(fields)
	return fields
}

// blockText extracts the text of significant block tags, in document
// order.
func (e *Extractor) blockText(root *goquery.Selection) []string {
	blocks := make([]string, 0, 32)
	root.Find(blockSelector(e.blockSet)).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			blocks = append(blocks, text)
		}
	})
	return blocks
}

func blockSelector(blockSet map[string]struct{}) string {
	if len(blockSet) == 0 {
		return "h1, h2, h3, h4, h5, h6, p, div, span, article, section, main, nav, header, footer, aside, blockquote, li, td, th"
	}
	tags := make([]string, 0, len(blockSet))
	for tag := range blockSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return strings.Join(tags, ", ")
}

func (e *Extractor) links(root *goquery.Selection) []models.Link {
	var links []models.Link
	root.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		internal := !strings.Contains(href, "://")
		links = append(links, models.Link{
			URL: href, Text: strings.TrimSpace(sel.Text()), Internal: internal,
		})
	})
	return links
}

func (e *Extractor) forms(root *goquery.Selection) []models.Form {
	var forms []models.Form
	root.Find("form").Each(func(_ int, sel *goquery.Selection) {
		action, _ := sel.Attr("action")
		method := strings.ToUpper(sel.AttrOr("method", "GET"))

		var fields []models.FormField
		sel.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
			name, _ := field.Attr("name")
			if name == "" {
				return
			}
			fields = append(fields, models.FormField{
				Name: name, Type: field.AttrOr("type", "text"),
			})
		})
		forms = append(forms, models.Form{Action: action, Method: method, Fields: fields})
	})
	return forms
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
