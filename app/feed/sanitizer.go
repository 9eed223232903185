package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Sanitizer cleans a raw text field. Implementations must accept any input,
// including empty and malformed markup, and never fail.
type Sanitizer interface {
	Clean(text string) string
}

var (
	_ Sanitizer = (*HTMLSanitizer)(nil)
	_ Sanitizer = NopSanitizer{}
)

// HTMLSanitizer strips markup, collapses whitespace and normalizes to NFC.
type HTMLSanitizer struct{}

func NewHTMLSanitizer() *HTMLSanitizer {
	return &HTMLSanitizer{}
}

func (s *HTMLSanitizer) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	plain := text
	if strings.ContainsAny(text, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			doc.Find("script, style").Remove()
			plain = doc.Text()
		}
	}

	return norm.NFC.String(strings.Join(strings.Fields(plain), " "))
}

// NopSanitizer returns its input unchanged.
type NopSanitizer struct{}

func (NopSanitizer) Clean(text string) string {
	return text
}
