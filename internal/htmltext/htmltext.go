// Package htmltext flattens product body_html into plain text for
// single-line display, such as table summaries in the demo CLI.
package htmltext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Strip removes HTML tags and returns plain text with entities resolved
// and whitespace collapsed.
func Strip(s string) string {
	if s == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Malformed markup still needs a best-effort answer.
		return strings.TrimSpace(stripFallback(s))
	}

	var buf strings.Builder
	extractText(doc, &buf)

	return strings.TrimSpace(collapseWhitespace(buf.String()))
}

// Summary returns the stripped text truncated to max runes, with an
// ellipsis when something was cut.
func Summary(s string, max int) string {
	text := Strip(s)
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}

func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "tr":
			buf.WriteString(" ")
		}
	}
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

func stripFallback(s string) string {
	s = htmlTagRegex.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return collapseWhitespace(s)
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}
