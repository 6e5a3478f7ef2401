package content

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultSummaryLength is the rune budget of article list summaries
const DefaultSummaryLength = 120

var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"iframe": true,
}

// PlainText returns the visible text of an HTML fragment with whitespace
// collapsed. Malformed markup is handled the way a browser would.
func PlainText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// Summary returns at most limit runes of the fragment's text, with an
// ellipsis when it was cut.
func Summary(fragment string, limit int) string {
	if limit <= 0 {
		limit = DefaultSummaryLength
	}
	text := PlainText(fragment)
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

// ImageSources lists the src attribute of every <img> in the fragment
func ImageSources(fragment string) []string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var srcs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, a := range n.Attr {
				if a.Key == "src" && a.Val != "" {
					srcs = append(srcs, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return srcs
}
