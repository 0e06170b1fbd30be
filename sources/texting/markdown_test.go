package texting

import (
	"testing"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain text untouched",
			input:    "Hello world",
			expected: "Hello world",
		},
		{
			name:     "Underscore escaped",
			input:    "Hello_world",
			expected: "Hello\\_world",
		},
		{
			name:     "Multiple special characters",
			input:    "Test[]()>#+-={}.!",
			expected: "Test\\[\\]\\(\\)\\>\\#\\+\\-\\=\\{\\}\\.\\!",
		},
		{
			name:     "Backslash escaped",
			input:    "a\\b",
			expected: "a\\\\b",
		},
		{
			name:     "Price line",
			input:    "google/nano-banana costs 5.00 ₽ per generation.",
			expected: "google/nano\\-banana costs 5\\.00 ₽ per generation\\.",
		},
		{
			name:     "Newlines preserved",
			input:    "line one\nline two",
			expected: "line one\nline two",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EscapeMarkdown(tt.input)
			if result != tt.expected {
				t.Errorf("EscapeMarkdown() = %q, expected %q", result, tt.expected)
			}
		})
	}
}
