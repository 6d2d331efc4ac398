package hasher

import (
	"testing"

	"github.com/sitesentry/sitesentry/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `
<html><head><title>Acme Corp</title>
<meta name="description" content="Acme homepage">
<script>trackUser()</script></head>
<body>
<h1 class="hero title">Welcome to Acme</h1>
<p>We build widgets since 2001.</p>
<a href="/about">About us</a>
<form action="/contact" method="post"><input name="email" type="email"></form>
</body></html>`

func TestExtract_ProducesStableFingerprintsAcrossIdenticalInput(t *testing.T) {
	ext := NewExtractor(config.NewDefaultHasherConfig())
	fp := NewFingerprinter()

	c1, truncated, err := ext.Extract("https://acme.test", []byte(samplePage))
	require.NoError(t, err)
	require.False(t, truncated)

	c2, _, err := ext.Extract("https://acme.test", []byte(samplePage))
	require.NoError(t, err)

	assert.Equal(t, fp.Fingerprint(c1), fp.Fingerprint(c2))
	assert.Contains(t, c1.Keywords, "widgets")
	assert.NotContains(t, c1.Keywords, "we") // stopword
	assert.Equal(t, "Acme Corp", c1.Title)
	assert.Len(t, c1.Forms, 1)
	assert.Equal(t, "POST", c1.Forms[0].Method)
}

func TestExtract_ScriptContentExcludedFromKeywords(t *testing.T) {
	ext := NewExtractor(config.NewDefaultHasherConfig())
	content, _, err := ext.Extract("https://acme.test", []byte(samplePage))
	require.NoError(t, err)

	assert.NotContains(t, content.Keywords, "trackuser")
}

func TestExtract_OversizedContentIsTruncated(t *testing.T) {
	cfg := config.NewDefaultHasherConfig()
	cfg.MaxContentBytes = 32
	ext := NewExtractor(cfg)

	_, truncated, err := ext.Extract("https://acme.test", []byte(samplePage))
	require.NoError(t, err)
	assert.True(t, truncated)
}

func TestFingerprint_DiffersWhenTextChanges(t *testing.T) {
	ext := NewExtractor(config.NewDefaultHasherConfig())
	fp := NewFingerprinter()

	original, _, err := ext.Extract("https://acme.test", []byte(samplePage))
	require.NoError(t, err)

	defaced := []byte(`<html><body><h1>HACKED BY ANON</h1></body></html>`)
	changed, _, err := ext.Extract("https://acme.test", defaced)
	require.NoError(t, err)

	assert.NotEqual(t, fp.Fingerprint(original), fp.Fingerprint(changed))
}
