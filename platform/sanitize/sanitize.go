// Package sanitize cleans user-typed text before it is stored.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripHTML removes tags, decodes common entities and strips again so
// encoded tags do not survive.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	return htmlTagRegex.ReplaceAllString(result, "")
}

// Text strips HTML, collapses runs of whitespace and cuts the result to at
// most maxRunes runes. maxRunes <= 0 means no limit.
func Text(s string, maxRunes int) string {
	result := strings.Join(strings.Fields(StripHTML(s)), " ")
	if maxRunes > 0 && utf8.RuneCountInString(result) > maxRunes {
		result = string([]rune(result)[:maxRunes])
	}
	return result
}
