package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paragraph = "The provincial government provides health coverage to all eligible residents " +
	"who have lived in the province for at least three months and hold valid status."

const page = `<html><head><title>Health coverage</title>
<meta name="description" content="Apply for provincial health coverage.">
<script>var tracking = 1;</script></head>
<body>
<header><a href="/">Home</a></header>
<nav><a href="/a">Services</a><a href="/b">Contact</a></nav>
<!-- banner slot -->
<main>
  <h2>Coverage</h2>
  <div class="sidebar"><a href="/x">Related</a> <a href="/y">Links</a></div>
  <p>` + paragraph + `</p>
  <div class="share">Share this page on social media</div>
  <form><input name="q"></form>
</main>
<footer>Copyright</footer>
</body></html>`

func TestExtractRemovesExcludedTags(t *testing.T) {
	e := New(nil, nil)
	out, err := e.Extract(page)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<main>"))
	assert.Contains(t, out, paragraph)
	for _, gone := range []string{"<nav", "<header", "<footer", "<form", "tracking", "banner slot"} {
		assert.NotContains(t, out, gone)
	}
	// Without pruning the sidebar survives.
	assert.Contains(t, out, "Related")
}

func TestExtractPrunesShortBlocks(t *testing.T) {
	e := New(nil, NewPruner(DefaultThreshold, true, DefaultMinWords))
	out, err := e.Extract(page)
	require.NoError(t, err)

	assert.Contains(t, out, paragraph)
	assert.Contains(t, out, "Coverage", "headings are exempt from the word floor")
	assert.NotContains(t, out, "Related")
	assert.NotContains(t, out, "Share this page")
}

func TestExtractFallsBackToBody(t *testing.T) {
	e := New([]string{"script"}, nil)
	out, err := e.Extract(`<html><body><p>plain body</p></body></html>`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<body>"))
	assert.Contains(t, out, "plain body")
}

func TestPrunerKeepsRootAndRemovesEmpty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><article><div></div><p>` + paragraph + `</p></article></body></html>`))
	require.NoError(t, err)

	root := doc.Find("article")
	NewPruner(0, false, DefaultMinWords).Prune(root)

	assert.Equal(t, 1, doc.Find("article").Length())
	assert.Equal(t, 0, root.Find("div").Length())
	assert.Equal(t, 1, root.Find("p").Length())
}

func TestPrunerFixedThresholdRemovesEverything(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><main><p>` + paragraph + `</p></main></body></html>`))
	require.NoError(t, err)

	root := doc.Find("body")
	NewPruner(100, false, 0).Prune(root)
	assert.Equal(t, 0, root.Find("p").Length())
}

func TestMetadata(t *testing.T) {
	meta := Metadata(page, "https://www.example.gov/en/health")
	assert.Equal(t, "Health coverage", meta.Title)
	assert.Equal(t, "Apply for provincial health coverage.", meta.Description)
}
