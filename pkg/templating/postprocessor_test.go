package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexReplaceProcessor(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		replace  string
		input    string
		expected string
	}{
		{
			name:     "strip leading indentation",
			pattern:  "^[ \t]+",
			replace:  "",
			input:    "<ul>\n    <li>a</li>\n\t<li>b</li>\n</ul>",
			expected: "<ul>\n<li>a</li>\n<li>b</li>\n</ul>",
		},
		{
			name:     "capture groups",
			pattern:  `href="http://([^"]+)"`,
			replace:  `href="https://$1"`,
			input:    `<a href="http://example.com">x</a>`,
			expected: `<a href="https://example.com">x</a>`,
		},
		{
			name:     "empty input",
			pattern:  "x",
			replace:  "y",
			input:    "",
			expected: "",
		},
		{
			name:     "preserves trailing newline",
			pattern:  "a",
			replace:  "b",
			input:    "a\n",
			expected: "b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewRegexReplaceProcessor(tt.pattern, tt.replace)
			require.NoError(t, err)

			out, err := p.Process(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestNewRegexReplaceProcessor_InvalidPattern(t *testing.T) {
	_, err := NewRegexReplaceProcessor("([", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regex pattern")
}

func TestNewPostProcessor(t *testing.T) {
	tests := []struct {
		name    string
		config  PostProcessorConfig
		wantErr string
	}{
		{
			name:   "regex replace",
			config: PostProcessorConfig{Type: PostProcessorTypeRegexReplace, Params: map[string]string{"pattern": "a", "replace": "b"}},
		},
		{
			name:    "regex replace missing pattern",
			config:  PostProcessorConfig{Type: PostProcessorTypeRegexReplace, Params: map[string]string{"replace": "b"}},
			wantErr: "'pattern'",
		},
		{
			name:    "regex replace missing replace",
			config:  PostProcessorConfig{Type: PostProcessorTypeRegexReplace, Params: map[string]string{"pattern": "a"}},
			wantErr: "'replace'",
		},
		{
			name:   "trim trailing whitespace",
			config: PostProcessorConfig{Type: PostProcessorTypeTrimTrailingWhitespace},
		},
		{
			name:    "unknown",
			config:  PostProcessorConfig{Type: "minify"},
			wantErr: "unknown post-processor type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPostProcessor(tt.config)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestApplyPostProcessors_Sequence(t *testing.T) {
	processors, err := NewPostProcessors([]PostProcessorConfig{
		{Type: PostProcessorTypeRegexReplace, Params: map[string]string{"pattern": "cat", "replace": "dog  "}},
		{Type: PostProcessorTypeTrimTrailingWhitespace},
	})
	require.NoError(t, err)
	require.Len(t, processors, 2)

	out, err := ApplyPostProcessors(processors, "a cat\nthe cat\t")
	require.NoError(t, err)
	assert.Equal(t, "a dog\nthe dog", out)
}

func TestNewPostProcessors_ReportsIndex(t *testing.T) {
	_, err := NewPostProcessors([]PostProcessorConfig{
		{Type: PostProcessorTypeTrimTrailingWhitespace},
		{Type: "bogus"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post-processor 1")
}

func TestApplyPostProcessors_None(t *testing.T) {
	out, err := ApplyPostProcessors(nil, "unchanged  ")
	require.NoError(t, err)
	assert.Equal(t, "unchanged  ", out)
}
