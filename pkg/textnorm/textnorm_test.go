package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicedesk/speechadmin/pkg/textnorm"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "Hello world", "Hello world"},
		{"collapses whitespace runs", "Hello   world \t again", "Hello world again"},
		{"newlines become spaces", "line one\nline two\r\nline three", "line one line two line three"},
		{"trims edges", "  padded  ", "padded"},
		{"dashes flattened", "pause — then go", "pause - then go"},
		{"ellipsis flattened", "wait… go", "wait... go"},
		{"empty input", "", ""},
		{"whitespace only", " \n\t ", ""},
		{"cyrillic preserved", "Привет,\nмир", "Привет, мир"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, textnorm.Normalize(tc.input))
		})
	}
}
