package textnorm

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML turns an HTML snippet (search-result or feed description) into
// plain text. Text without markup is returned with whitespace collapsed.
func StripHTML(snippet string) string {
	if !strings.ContainsAny(snippet, "<&") {
		return CollapseSpaces(snippet)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return CollapseSpaces(snippet)
	}
	doc.Find("script, style").Remove()
	return CollapseSpaces(doc.Text())
}
