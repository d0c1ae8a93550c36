package adapter

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	lineBreakRegex = regexp.MustCompile(`(?i)<\s*(p|br|li|div)\b[^>]*>`)
)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles Greenhouse's double-encoding;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// htmlLines splits an HTML fragment into trimmed, non-empty text lines,
// breaking at paragraph, list item and <br> boundaries.
func htmlLines(fragment string) []string {
	withBreaks := lineBreakRegex.ReplaceAllString(fragment, "\n")
	plain := html.UnescapeString(htmlTagRegex.ReplaceAllString(withBreaks, ""))

	var lines []string
	for _, line := range strings.Split(plain, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// absoluteURL resolves href against base. Returns href unchanged if either fails to parse.
func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
