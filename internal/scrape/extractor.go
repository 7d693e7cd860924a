package scrape

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/finsent/internal/model"
)

// ErrEmptyDocument is returned for a page with no markup at all
var ErrEmptyDocument = errors.New("empty document")

var (
	boilerplateTags = "script, style, nav, header, footer, aside, form, iframe, noscript, svg, button, template"

	boilerplateAttr = regexp.MustCompile(`(?i)(^|[\s_-])(ads?|advert\w*|banner|share|sharing|social|related|recommend\w*|comments?|newsletter|promo\w*|subscribe|sidebar|cookie\w*|popup|breadcrumbs?|taboola|outbrain)($|[\s_-])`)

	contentAttr = regexp.MustCompile(`(?i)(article|story|content|entry|post)[-_]?(body|content|text)?`)

	bylinePrefix = regexp.MustCompile(`(?i)^\s*(written\s+)?by[\s:]+`)
	authorSplit  = regexp.MustCompile(`(?i)\s*(?:,|\||&|\band\b)\s*`)
	hasDigit     = regexp.MustCompile(`\d`)
)

const (
	minParagraphChars = 25
	maxAuthorWords    = 5
	maxAuthorChars    = 60
)

// Extractor turns article HTML into main text and authors
type Extractor struct{}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract pulls the article body and authors out of page HTML. A page that
// parses but has no readable text yields empty Text and no error.
func (e *Extractor) Extract(rawHTML, pageURL string) (*model.Content, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, ErrEmptyDocument
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	// Bylines often live in the header, so authors come first
	authors := extractAuthors(doc)
	title := extractTitle(doc)

	removeBoilerplate(doc)

	return &model.Content{
		Text:     extractText(doc),
		Authors:  authors,
		Title:    title,
		FinalURL: pageURL,
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := collapse(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return collapse(doc.Find("title").First().Text())
}

func removeBoilerplate(doc *goquery.Document) {
	doc.Find(boilerplateTags).Remove()

	var noise []*html.Node
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "html", "body", "article", "main":
			return
		}
		if prop, _ := s.Attr("itemprop"); prop == "articleBody" {
			return
		}
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if boilerplateAttr.MatchString(class) || boilerplateAttr.MatchString(id) {
			noise = append(noise, s.Nodes...)
		}
	})
	for _, n := range noise {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// extractText scores containers by the text mass of the paragraphs they
// hold and returns the paragraphs of the best one
func extractText(doc *goquery.Document) string {
	scores := make(map[*html.Node]float64)
	var order []*html.Node

	credit := func(n *html.Node, v float64) {
		if n == nil || n.Type != html.ElementNode {
			return
		}
		if _, seen := scores[n]; !seen {
			order = append(order, n)
		}
		scores[n] += v
	}

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := nodeText(p.Nodes[0])
		if len(text) < minParagraphChars {
			return
		}
		mass := float64(len(text))
		parent := p.Nodes[0].Parent
		credit(parent, mass)
		if parent != nil {
			credit(parent.Parent, mass/2)
		}
	})

	var best *html.Node
	bestScore := 0.0
	for _, n := range order {
		score := scores[n] * containerWeight(n)
		if score > bestScore {
			best, bestScore = n, score
		}
	}

	if best == nil {
		return fallbackText(doc)
	}

	var paragraphs []string
	goquery.NewDocumentFromNode(best).Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := nodeText(s.Nodes[0]); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, "\n\n")
}

func containerWeight(n *html.Node) float64 {
	weight := 1.0
	switch n.DataAtom {
	case atom.Article:
		weight = 1.3
	case atom.Main:
		weight = 1.1
	}
	for _, a := range n.Attr {
		switch {
		case a.Key == "itemprop" && a.Val == "articleBody":
			weight = 1.5
		case (a.Key == "class" || a.Key == "id") && contentAttr.MatchString(a.Val):
			weight *= 1.2
		}
	}
	return weight
}

func fallbackText(doc *goquery.Document) string {
	for _, sel := range []string{`[itemprop="articleBody"]`, "article", "main", "body"} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if text := nodeText(s.Nodes[0]); text != "" {
			return text
		}
	}
	return ""
}

// nodeText returns the visible text under n with whitespace collapsed
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.Br:
				sb.WriteByte(' ')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			sb.WriteByte(' ')
		}
	}
	walk(n)
	return collapse(sb.String())
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.Section, atom.Article, atom.Td, atom.Tr, atom.Blockquote:
		return true
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractAuthors collects author names from structured data first, then
// from visible bylines
func extractAuthors(doc *goquery.Document) []string {
	var raw []string

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw = append(raw, jsonLDAuthors(s.Text())...)
	})

	for _, sel := range []string{`meta[name="author"]`, `meta[property="article:author"]`, `meta[name="parsely-author"]`} {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr("content"); ok {
				raw = append(raw, v)
			}
		})
	}

	doc.Find(`[rel="author"]`).Each(func(_ int, s *goquery.Selection) {
		raw = append(raw, s.Text())
	})

	doc.Find(`[itemprop="author"]`).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("content"); ok {
			raw = append(raw, v)
			return
		}
		if name := s.Find(`[itemprop="name"]`).First(); name.Length() > 0 {
			if v, ok := name.Attr("content"); ok {
				raw = append(raw, v)
			} else {
				raw = append(raw, name.Text())
			}
			return
		}
		raw = append(raw, s.Text())
	})

	doc.Find(`[class*="byline"], [class*="author-name"], [class="author"]`).Each(func(_ int, s *goquery.Selection) {
		raw = append(raw, s.Text())
	})

	return cleanAuthors(raw)
}

// jsonLDAuthors reads author names from a JSON-LD block, which may be a
// single object, an array, or an object with @graph
func jsonLDAuthors(text string) []string {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil
	}

	var names []string
	var visit func(any, bool)
	visit = func(v any, inAuthor bool) {
		switch t := v.(type) {
		case string:
			if inAuthor {
				names = append(names, t)
			}
		case []any:
			for _, item := range t {
				visit(item, inAuthor)
			}
		case map[string]any:
			if inAuthor {
				if name, ok := t["name"].(string); ok {
					names = append(names, name)
				}
				return
			}
			if a, ok := t["author"]; ok {
				visit(a, true)
			}
			if g, ok := t["@graph"]; ok {
				visit(g, false)
			}
		}
	}
	visit(v, false)
	return names
}

// cleanAuthors strips byline prefixes, splits joint bylines and drops
// anything that does not look like a name. Order is kept, duplicates dropped.
func cleanAuthors(raw []string) []string {
	seen := make(map[string]bool)
	authors := []string{}

	for _, r := range raw {
		r = bylinePrefix.ReplaceAllString(collapse(r), "")
		for _, part := range authorSplit.Split(r, -1) {
			name := strings.Trim(collapse(part), " .:-")
			name = bylinePrefix.ReplaceAllString(name, "")
			if !looksLikeName(name) {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			authors = append(authors, name)
		}
	}

	return authors
}

func looksLikeName(s string) bool {
	if s == "" || len(s) > maxAuthorChars {
		return false
	}
	if strings.Contains(s, "://") || strings.HasPrefix(strings.ToLower(s), "www.") || strings.ContainsAny(s, "/@") {
		return false
	}
	if hasDigit.MatchString(s) {
		return false
	}
	return len(strings.Fields(s)) <= maxAuthorWords
}
