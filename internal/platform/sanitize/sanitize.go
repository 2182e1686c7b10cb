// Package sanitize cleans untrusted text submitted through public forms.
package sanitize

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
	"`", "&#96;",
)

// Text strips NUL bytes, trims surrounding whitespace and HTML-escapes s.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return htmlEscaper.Replace(strings.TrimSpace(s))
}

// Email trims, lowercases and strips NUL bytes. Emails are validated, not escaped.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "\x00", "")))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// LikePattern returns a %term% pattern with LIKE wildcards in term escaped.
func LikePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
