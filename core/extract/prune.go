package extract

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Pruning defaults.
const (
	DefaultThreshold = 0.48
	DefaultMinWords  = 10
)

// Metric weights; they sum to 1 so a score is comparable with the threshold.
const (
	weightTextDensity = 0.4
	weightLinkDensity = 0.2
	weightTag         = 0.2
	weightClassID     = 0.1
	weightTextLength  = 0.1
)

var tagWeights = map[string]float64{
	"article": 1.5, "main": 1.4, "section": 1.0, "p": 1.0,
	"div": 0.5, "span": 0.3, "li": 0.5, "ul": 0.5, "ol": 0.5,
	"h1": 1.2, "h2": 1.1, "h3": 1.0, "h4": 0.9, "h5": 0.8, "h6": 0.7,
}

var tagImportance = map[string]float64{
	"article": 1.5, "main": 1.4, "section": 1.3, "p": 1.2,
	"h1": 1.4, "h2": 1.3, "h3": 1.2, "div": 0.7, "span": 0.6,
}

// scoredTags are the block elements the pruner judges as a unit.
var scoredTags = map[string]bool{
	"div": true, "section": true, "article": true, "main": true, "aside": true,
	"p": true, "ul": true, "ol": true, "dl": true, "table": true,
	"blockquote": true, "pre": true, "figure": true, "details": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// containerTags are descended into when kept; other blocks stay whole.
var containerTags = map[string]bool{
	"div": true, "section": true, "article": true, "main": true,
	"aside": true, "figure": true, "details": true,
}

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var negativePattern = regexp.MustCompile(`(?i)nav|footer|header|sidebar|ads|comment|promo|advert|social|share|breadcrumb|menu|banner`)

// Pruner removes low-value blocks by scoring text density, link density,
// tag weight, class/id hints and text length.
type Pruner struct {
	Threshold float64
	Dynamic   bool
	MinWords  int
}

// NewPruner creates a Pruner. A non-positive threshold uses DefaultThreshold.
func NewPruner(threshold float64, dynamic bool, minWords int) *Pruner {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Pruner{Threshold: threshold, Dynamic: dynamic, MinWords: minWords}
}

// Prune walks the children of root and removes blocks that score below the
// threshold. root itself is never removed.
func (p *Pruner) Prune(root *goquery.Selection) {
	root.Children().Each(func(_ int, s *goquery.Selection) {
		p.prune(s)
	})
}

func (p *Pruner) prune(s *goquery.Selection) {
	tag := goquery.NodeName(s)
	if !scoredTags[tag] {
		return
	}
	if !p.keep(s, tag) {
		s.Remove()
		return
	}
	if containerTags[tag] {
		s.Children().Each(func(_ int, c *goquery.Selection) {
			p.prune(c)
		})
	}
}

// keep scores one block and compares it with the (possibly adjusted) threshold.
func (p *Pruner) keep(s *goquery.Selection, tag string) bool {
	text := strings.TrimSpace(s.Text())
	textLen := utf8.RuneCountInString(text)
	if textLen == 0 {
		return false
	}
	if p.MinWords > 0 && !headingTags[tag] && len(strings.Fields(text)) < p.MinWords {
		return false
	}

	inner, err := s.Html()
	if err != nil {
		return false
	}
	tagLen := utf8.RuneCountInString(inner)
	if tagLen == 0 {
		tagLen = 1
	}
	linkLen := utf8.RuneCountInString(strings.TrimSpace(s.Find("a").Text()))

	textRatio := float64(textLen) / float64(tagLen)
	linkRatio := float64(linkLen) / float64(textLen)

	score := weightTextDensity*textRatio +
		weightLinkDensity*(1-linkRatio) +
		weightTag*weightFor(tagWeights, tag, 0.5) +
		weightClassID*classIDWeight(s) +
		weightTextLength*math.Log(float64(textLen)+1)

	return score >= p.threshold(tag, textRatio, linkRatio)
}

func (p *Pruner) threshold(tag string, textRatio, linkRatio float64) float64 {
	th := p.Threshold
	if !p.Dynamic {
		return th
	}
	if weightFor(tagImportance, tag, 0.7) > 1 {
		th *= 0.8
	}
	if textRatio > 0.4 {
		th *= 0.9
	}
	if linkRatio > 0.6 {
		th *= 1.2
	}
	return th
}

func weightFor(m map[string]float64, tag string, fallback float64) float64 {
	if w, ok := m[tag]; ok {
		return w
	}
	return fallback
}

func classIDWeight(s *goquery.Selection) float64 {
	var w float64
	if class, ok := s.Attr("class"); ok && negativePattern.MatchString(class) {
		w -= 0.5
	}
	if id, ok := s.Attr("id"); ok && negativePattern.MatchString(id) {
		w -= 0.5
	}
	return w
}

// stripComments removes HTML comment nodes under sel.
func stripComments(sel *goquery.Selection) {
	for _, n := range sel.Nodes {
		removeCommentNodes(n)
	}
}

func removeCommentNodes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeCommentNodes(c)
		}
		c = next
	}
}
