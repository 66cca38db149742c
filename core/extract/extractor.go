// Package extract implements the Extractor interface.
// It isolates the main content from a full HTML page by:
//  1. Removing boilerplate elements (nav, footer, header, aside, scripts, forms)
//  2. Finding the best content container (<main>, <article>, or <body>)
//  3. Pruning low-value blocks with a text-density scoring filter
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultExcludedTags are removed before extraction.
var DefaultExcludedTags = []string{"nav", "footer", "header", "aside", "script", "style", "form"}

// HTMLExtractor strips noise from HTML and returns the main content fragment.
type HTMLExtractor struct {
	excluded []string
	pruner   *Pruner
}

// New creates an HTMLExtractor. A nil pruner disables pruning.
func New(excludedTags []string, pruner *Pruner) *HTMLExtractor {
	if len(excludedTags) == 0 {
		excludedTags = DefaultExcludedTags
	}
	return &HTMLExtractor{excluded: excludedTags, pruner: pruner}
}

// Extract takes raw HTML and returns a cleaned HTML fragment containing
// only the main content.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	stripComments(doc.Selection)
	// noscript only renders when scripting is off.
	doc.Find("noscript").Remove()
	for _, sel := range e.excluded {
		doc.Find(sel).Remove()
	}

	// <main> is the most semantically correct, then <article>, then <body>.
	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		sel := doc.Find(tag)
		if sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return "", fmt.Errorf("no content container found in HTML")
	}

	if e.pruner != nil {
		e.pruner.Prune(content)
	}

	result, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return result, nil
}
