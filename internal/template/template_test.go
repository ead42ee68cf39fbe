package template

import (
	"errors"
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	t.Parallel()

	data := MessageData{
		Text:      "buy *milk* #inbox",
		Name:      "Alice Smith",
		Username:  "alice",
		Date:      time.Date(2026, 8, 30, 21, 15, 0, 0, time.UTC),
		MessageID: 42,
		ChatID:    -100123,
	}

	tests := []struct {
		name     string
		template string
		expected string
		wantErr  bool
	}{
		{
			name:     "raw text placeholder",
			template: "{{{text}}}",
			expected: "buy *milk* #inbox",
		},
		{
			name:     "escaped text placeholder",
			template: "{{text}}",
			expected: `buy \*milk\* \#inbox`,
		},
		{
			name:     "name and username",
			template: "{{name}} (@{{username}})",
			expected: "Alice Smith (@alice)",
		},
		{
			name:     "literal text around placeholders",
			template: "- {{{text}}} (from {{name}})",
			expected: "- buy *milk* #inbox (from Alice Smith)",
		},
		{
			name:     "unknown placeholder renders empty",
			template: "[{{nope}}]",
			expected: "[]",
		},
		{
			name:     "date placeholder",
			template: "{{date}}",
			expected: `2026\-08\-30 21:15`,
		},
		{
			name:     "message and chat ids",
			template: "{{message_id}}/{{chat_id}}",
			expected: `42/\-100123`,
		},
		{
			name:     "whitespace inside placeholder",
			template: "{{ name }}",
			expected: "Alice Smith",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			expected: "plain text",
		},
		{
			name:     "empty template",
			template: "",
			expected: "",
		},
		{
			name:     "unterminated double placeholder",
			template: "{{text",
			wantErr:  true,
		},
		{
			name:     "unterminated triple placeholder",
			template: "{{{text}}",
			wantErr:  true,
		},
		{
			name:     "empty placeholder name",
			template: "{{}}",
			wantErr:  true,
		},
		{
			name:     "nested braces in placeholder",
			template: "{{te{xt}}",
			wantErr:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Render(tc.template, data)

			if tc.wantErr {
				if err == nil {
					t.Fatalf("Render(%q) = %q, want error", tc.template, got)
				}
				if !errors.Is(err, ErrBadTemplate) {
					t.Errorf("Render(%q) error = %v, want ErrBadTemplate", tc.template, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Render(%q) unexpected error: %v", tc.template, err)
			}
			if got != tc.expected {
				t.Errorf("Render(%q) = %q, want %q", tc.template, got, tc.expected)
			}
		})
	}
}

func TestRenderEmptyValues(t *testing.T) {
	t.Parallel()

	got, err := Render("{{{text}}}|{{name}}|{{date}}", MessageData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "||" {
		t.Errorf("Render with zero data = %q, want %q", got, "||")
	}
}
