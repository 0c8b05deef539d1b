package textfmt

import (
	"strings"

	"golang.org/x/net/html"
)

// AllowedTags maps a tag name to the attributes it may keep.
type AllowedTags map[string][]string

// ExcerptTags is the whitelist used for generated excerpts.
var ExcerptTags = AllowedTags{
	"em":     nil,
	"strong": nil,
	"u":      nil,
	"a":      {"href", "title"},
}

// Sanitize tokenizes fragment and keeps only whitelisted tags and
// attributes. Text is kept, comments and disallowed tags are dropped, and the
// contents of script and style elements are removed entirely.
func Sanitize(fragment string, allowed AllowedTags) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.WriteString(html.EscapeString(string(z.Text())))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data == "script" || tok.Data == "style" {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			attrs, ok := allowed[tok.Data]
			if !ok || skip > 0 {
				continue
			}
			tok.Attr = keepAttrs(tok.Attr, attrs)
			b.WriteString(tok.String())
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data == "script" || tok.Data == "style" {
				if skip > 0 {
					skip--
				}
				continue
			}
			if _, ok := allowed[tok.Data]; ok && skip == 0 {
				b.WriteString(tok.String())
			}
		}
	}
}

func keepAttrs(attrs []html.Attribute, allowed []string) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		for _, name := range allowed {
			if a.Key == name {
				kept = append(kept, a)
				break
			}
		}
	}
	return kept
}

// StripTags returns the text content of fragment.
func StripTags(fragment string) string {
	return Sanitize(fragment, nil)
}
