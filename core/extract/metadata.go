package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/govcrawl/core"
	"github.com/go-shiori/go-readability"
)

// Metadata reads the page title and description from the document head.
// When either is missing it falls back to readability's title and excerpt.
func Metadata(rawHTML, pageURL string) core.PageMetadata {
	var meta core.PageMetadata

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err == nil {
		meta.Title = strings.TrimSpace(doc.Find("head title").First().Text())
		if meta.Title == "" {
			meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}
		for _, sel := range []string{
			`meta[name="description"]`,
			`meta[property="og:description"]`,
			`meta[name="dcterms.description"]`,
		} {
			if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
				meta.Description = strings.TrimSpace(v)
				break
			}
		}
	}

	if meta.Title != "" && meta.Description != "" {
		return meta
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return meta
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return meta
	}
	if meta.Title == "" {
		meta.Title = strings.TrimSpace(article.Title)
	}
	if meta.Description == "" {
		meta.Description = strings.TrimSpace(article.Excerpt)
	}
	return meta
}
