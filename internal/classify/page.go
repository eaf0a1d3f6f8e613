package classify

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is one fetched page as seen by the classifier. DOM is optional;
// without it element matching is skipped.
type Page struct {
	Text string
	DOM  *goquery.Document
}

// TextPage wraps plain text with no DOM.
func TextPage(text string) Page { return Page{Text: text} }

// ParseHTML builds a Page from an HTML body. Scripts, styles and other
// non-rendered content are dropped from the text.
func ParseHTML(r io.Reader) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, svg").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return Page{Text: text, DOM: doc}, nil
}

// ParseHTMLString is ParseHTML over an in-memory body.
func ParseHTMLString(body string) (Page, error) {
	return ParseHTML(strings.NewReader(body))
}
