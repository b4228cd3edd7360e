package converter

import (
	"regexp"
	"strings"
)

// entityReplacements is the fixed set of named entities decoded in chapter
// text. Anything else (e.g. &copy;) is left verbatim.
var entityReplacements = map[string]string{
	"nbsp":   " ",
	"amp":    "&",
	"lt":     "<",
	"gt":     ">",
	"quot":   `"`,
	"#39":    "'",
	"apos":   "'",
	"mdash":  "—",
	"ndash":  "–",
	"hellip": "…",
	"rsquo":  "'",
	"lsquo":  "'",
	"rdquo":  `"`,
	"ldquo":  `"`,
}

var entityRe = regexp.MustCompile(`&(nbsp|amp|lt|gt|quot|#39|apos|mdash|ndash|hellip|rsquo|lsquo|rdquo|ldquo);`)

// decodeEntities makes a single left-to-right pass, so "&amp;lt;" becomes
// "&lt;" and not "<".
func decodeEntities(s string) string {
	return entityRe.ReplaceAllStringFunc(s, func(m string) string {
		return entityReplacements[m[1:len(m)-1]]
	})
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeText escapes the three characters that would otherwise be read back
// as markup or entities.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
