// Package parser turns HTML-only reply bodies into plain text so the
// classifier can run on them.
package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLParser converts HTML email bodies to plain text
type HTMLParser struct {
	blankRuns *regexp.Regexp
	invisible *regexp.Regexp
}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{
		blankRuns: regexp.MustCompile(`\n{3,}`),
		// Zero-width and soft-hyphen characters common in marketing mail
		invisible: regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}]+`),
	}
}

// Parse extracts readable text from an HTML body. Returns an empty string
// when the document has no text content.
func (p *HTMLParser) Parse(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, head").Remove()

	// Break block elements onto their own lines before flattening
	doc.Find("p, div, br, li, tr, h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := p.invisible.ReplaceAllString(doc.Text(), "")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	text = strings.Join(lines, "\n")
	text = p.blankRuns.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
