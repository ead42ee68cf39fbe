// Package text provides Markdown escaping and formatting removal for
// captured message content before it is written into a vault note.
package text

import (
	"regexp"
	"strings"
)

// markdownSpecial lists the characters that can corrupt note structure when
// they appear unescaped in Markdown body text.
const markdownSpecial = "\\`*_{}[]()#+-.!|>~"

// EscapeMarkdown backslash-escapes every Markdown-significant character in s
// so the string renders as literal text inside a note.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}

var formattingRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("(?s)```[a-zA-Z0-9]*\\n?(.*?)```"), "$1"},
	{regexp.MustCompile("`([^`\n]*)`"), "$1"},
	{regexp.MustCompile(`\*\*\*([^*\n]+)\*\*\*`), "$1"},
	{regexp.MustCompile(`\*\*([^*\n]+)\*\*`), "$1"},
	{regexp.MustCompile(`\*([^*\n]+)\*`), "$1"},
	{regexp.MustCompile(`___([^_\n]+)___`), "$1"},
	{regexp.MustCompile(`__([^_\n]+)__`), "$1"},
	{regexp.MustCompile(`_([^_\n]+)_`), "$1"},
	{regexp.MustCompile(`~~([^~\n]+)~~`), "$1"},
	{regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},
	{regexp.MustCompile(`(?m)^>\s?`), ""},
	{regexp.MustCompile(`(?m)^(\s*)[*+-]\s+`), "$1"},
	{regexp.MustCompile(`(?m)^(\s*)\d+\.\s+`), "$1"},
}

// RemoveFormatting strips Markdown formatting markers from s, keeping the
// plain text content. Line structure is preserved.
func RemoveFormatting(s string) string {
	for _, rule := range formattingRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}

	return strings.TrimSpace(s)
}
