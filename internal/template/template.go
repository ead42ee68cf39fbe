// Package template renders message templates against the fields of an
// incoming Telegram message. Placeholders use mustache-style delimiters:
// {{{field}}} inserts the raw value, {{field}} inserts a Markdown-escaped
// value. Unknown placeholders render as an empty string.
package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fishyer/obsidian-telegram-inbox/internal/text"
)

// ErrBadTemplate indicates a malformed template, such as an unterminated
// placeholder. It is a configuration defect the user must fix; callers are
// expected to surface it rather than swallow it.
var ErrBadTemplate = errors.New("malformed template")

// MessageData carries the fields of one inbound message that are exposed to
// templates. It is created fresh per message and never mutated afterwards.
type MessageData struct {
	Text      string
	Name      string
	Username  string
	Date      time.Time
	MessageID int
	ChatID    int64
}

// field resolves a placeholder name to its value. The second return value
// reports whether the name is recognized.
func (d MessageData) field(name string) (string, bool) {
	switch name {
	case "text":
		return d.Text, true
	case "name":
		return d.Name, true
	case "username":
		return d.Username, true
	case "date":
		if d.Date.IsZero() {
			return "", true
		}
		return d.Date.Format("2006-01-02 15:04"), true
	case "message_id":
		return strconv.Itoa(d.MessageID), true
	case "chat_id":
		return strconv.FormatInt(d.ChatID, 10), true
	}
	return "", false
}

// Render substitutes every placeholder in tmpl with the corresponding value
// from data. Triple-delimited placeholders insert the value literally;
// double-delimited ones Markdown-escape it first. Unknown placeholders
// become the empty string. An unterminated or empty placeholder returns
// ErrBadTemplate.
func Render(tmpl string, data MessageData) (string, error) {
	var b strings.Builder

	for {
		start := strings.Index(tmpl, "{{")
		if start < 0 {
			b.WriteString(tmpl)
			return b.String(), nil
		}

		b.WriteString(tmpl[:start])
		rest := tmpl[start:]

		raw := strings.HasPrefix(rest, "{{{")
		open, closing := "{{", "}}"
		if raw {
			open, closing = "{{{", "}}}"
		}

		end := strings.Index(rest[len(open):], closing)
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated placeholder at offset %d", ErrBadTemplate, start)
		}

		name := strings.TrimSpace(rest[len(open) : len(open)+end])
		if name == "" || strings.ContainsAny(name, "{}") {
			return "", fmt.Errorf("%w: invalid placeholder %q", ErrBadTemplate, rest[:len(open)+end+len(closing)])
		}

		value, _ := data.field(name)
		if raw {
			b.WriteString(value)
		} else {
			b.WriteString(text.EscapeMarkdown(value))
		}

		tmpl = rest[len(open)+end+len(closing):]
	}
}
