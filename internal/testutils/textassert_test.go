package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestTextAsserter_Defaults(t *testing.T) {
	opts := NewTextAsserter(t).Options()

	assert.True(t, opts.IgnoreTrailingWhitespace)
	assert.True(t, opts.TrimSpace)
	assert.True(t, opts.StripANSI)
	assert.False(t, opts.IgnoreEmptyLines)
	assert.False(t, opts.EnableColors)
}

func TestTextAsserter_Normalization(t *testing.T) {
	tests := []struct {
		name     string
		opts     []TextOption
		actual   string
		expected string
		match    bool
	}{
		{
			name:     "identical",
			actual:   "state: streaming\nSOG: 4.20",
			expected: "state: streaming\nSOG: 4.20",
			match:    true,
		},
		{
			name:     "trailing whitespace and outer blank lines ignored",
			actual:   "\nstate: streaming   \nSOG: 4.20\t\n\n",
			expected: "state: streaming\nSOG: 4.20",
			match:    true,
		},
		{
			name:     "ANSI colour stripped",
			actual:   "\x1b[32mstreaming\x1b[0m",
			expected: "streaming",
			match:    true,
		},
		{
			name:     "ANSI kept when stripping disabled",
			opts:     []TextOption{WithStripANSI(false)},
			actual:   "\x1b[32mstreaming\x1b[0m",
			expected: "streaming",
			match:    false,
		},
		{
			name:     "inner empty lines ignored on request",
			opts:     []TextOption{WithIgnoreEmptyLines(true)},
			actual:   "a\n\nb",
			expected: "a\nb",
			match:    true,
		},
		{
			name:     "different value",
			actual:   "SOG: 4.21",
			expected: "SOG: 4.20",
			match:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingT{}
			ok := NewTextAsserter(rec, tt.opts...).Assert(tt.actual, tt.expected)

			assert.Equal(t, tt.match, ok)
			assert.Equal(t, tt.match, len(rec.errors) == 0, "errors: %v", rec.errors)
		})
	}
}

func TestTextAsserter_DiffIsUnified(t *testing.T) {
	diff := NewTextAsserter(t).Diff("SOG: 4.21", "SOG: 4.20")

	require.NotEmpty(t, diff)
	assert.Contains(t, diff, "--- expected")
	assert.Contains(t, diff, "+++ actual")
	assert.Contains(t, diff, "-SOG: 4.20")
	assert.Contains(t, diff, "+SOG: 4.21")
}

func TestTextAsserter_ColoredDiff(t *testing.T) {
	diff := NewTextAsserter(t, WithEnableColors(true)).Diff("b", "a")

	assert.Contains(t, diff, "\x1b[31m", "deletions MUST be red")
	assert.Contains(t, diff, "\x1b[32m", "additions MUST be green")
}
