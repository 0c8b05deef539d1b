// Package textfmt holds the small text filters applied to post content and
// attribute values: paragraph wrapping, email obfuscation, tag whitelisting,
// shortcode stripping and word trimming.
package textfmt

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	blockTag   = regexp.MustCompile(`(?i)^<(p|div|ul|ol|li|h[1-6]|blockquote|pre|table|figure|section|hr)[\s>/]`)
	shortcode  = regexp.MustCompile(`\[(\[?)([\w-]+)(?:[^\[\]]*?)(?:/\]|\](?:[^\[]*?\[/[\w-]+\])?)(\]?)`)
)

// Autop wraps blank-line separated blocks in <p> and turns the remaining
// single newlines into <br />. Blocks that already start with a block level
// tag are left alone.
func Autop(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var out []string
	for _, block := range blankLines.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if blockTag.MatchString(block) {
			out = append(out, block)
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(block, "\n", "<br />\n")+"</p>")
	}
	return strings.Join(out, "\n")
}

// Antispam hides an email address from naive scrapers by turning every other
// character, and every '@' and '.', into an HTML entity.
func Antispam(email string) string {
	var b strings.Builder
	i := 0
	for _, r := range email {
		if r == '@' || r == '.' || i%2 == 0 {
			fmt.Fprintf(&b, "&#%d;", r)
		} else {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}

// StripShortcodes removes [tag] and [tag]...[/tag] constructs. Escaped
// [[tag]] shortcodes keep their inner text minus one bracket pair.
func StripShortcodes(text string) string {
	return shortcode.ReplaceAllStringFunc(text, func(m string) string {
		if strings.HasPrefix(m, "[[") && strings.HasSuffix(m, "]]") {
			return m[1 : len(m)-1]
		}
		return ""
	})
}

// TrimWords keeps the first n words of text and appends more when anything
// was cut. n <= 0 returns text unchanged.
func TrimWords(text string, n int, more string) string {
	if n <= 0 {
		return text
	}
	words := strings.FieldsFunc(text, unicode.IsSpace)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + more
}
