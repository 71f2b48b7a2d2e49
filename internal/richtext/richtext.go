// Package richtext cleans user-authored text before it is stored: review
// bodies from the rich-text editor are converted from HTML to Markdown, and
// all text is NFC-normalized with control characters removed.
package richtext

import (
	"regexp"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/unicode/norm"
)

// htmlTagPattern matches the tags the editor emits.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|u|s|strong|em|a|ul|ol|li|h[1-6]|blockquote|code|pre)[\s>/]`)

var blankLines = regexp.MustCompile(`\n{3,}`)

// ContainsHTML reports whether s looks like editor HTML.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Normalize NFC-normalizes s, drops control characters other than newline
// and tab, unifies line endings and trims surrounding whitespace.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ReviewBody converts an editor body to normalized Markdown. Plain text
// passes through Normalize unchanged; HTML that fails to convert is kept as
// text rather than rejected.
func ReviewBody(s string) string {
	if s == "" {
		return ""
	}
	if ContainsHTML(s) {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = md
		}
	}
	return Normalize(s)
}

// CommentBody normalizes a comment. Comments are plain text.
func CommentBody(s string) string {
	return Normalize(s)
}
