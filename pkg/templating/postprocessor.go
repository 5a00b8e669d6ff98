// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package templating

import (
	"fmt"
	"strings"
)

// PostProcessor processes rendered output before it is returned to the caller.
// Post-processors run once per top-level render, on the final output including
// any layout.
type PostProcessor interface {
	// Process applies transformation to the input string.
	// Returns the transformed output or an error if processing fails.
	Process(input string) (string, error)
}

// PostProcessorType identifies the type of post-processor.
type PostProcessorType string

const (
	// PostProcessorTypeRegexReplace applies regex-based find/replace.
	PostProcessorTypeRegexReplace PostProcessorType = "regex_replace"

	// PostProcessorTypeTrimTrailingWhitespace strips trailing spaces and tabs
	// from every line.
	PostProcessorTypeTrimTrailingWhitespace PostProcessorType = "trim_trailing_whitespace"
)

// PostProcessorConfig defines configuration for a post-processor.
// The Type field determines which processor implementation to use,
// and Params contains type-specific configuration.
type PostProcessorConfig struct {
	// Type specifies which post-processor to use.
	Type PostProcessorType `yaml:"type" toml:"type" json:"type"`

	// Params contains type-specific configuration as key-value pairs.
	// For regex_replace:
	//   - pattern: Regular expression pattern to match (required)
	//   - replace: Replacement string (required)
	Params map[string]string `yaml:"params" toml:"params" json:"params"`
}

// NewPostProcessor creates a post-processor instance from configuration.
//
// Returns an error if:
//   - The processor type is unknown
//   - Required parameters are missing
//   - Parameters are invalid (e.g., invalid regex pattern)
func NewPostProcessor(config PostProcessorConfig) (PostProcessor, error) {
	switch config.Type {
	case PostProcessorTypeRegexReplace:
		pattern, ok := config.Params["pattern"]
		if !ok {
			return nil, fmt.Errorf("regex_replace processor requires 'pattern' parameter")
		}

		replace, ok := config.Params["replace"]
		if !ok {
			return nil, fmt.Errorf("regex_replace processor requires 'replace' parameter")
		}

		return NewRegexReplaceProcessor(pattern, replace)

	case PostProcessorTypeTrimTrailingWhitespace:
		return TrimTrailingWhitespaceProcessor{}, nil

	default:
		return nil, fmt.Errorf("unknown post-processor type: %s", config.Type)
	}
}

// NewPostProcessors builds processors for every configuration entry, in order.
func NewPostProcessors(configs []PostProcessorConfig) ([]PostProcessor, error) {
	processors := make([]PostProcessor, 0, len(configs))
	for i, cfg := range configs {
		p, err := NewPostProcessor(cfg)
		if err != nil {
			return nil, fmt.Errorf("post-processor %d: %w", i, err)
		}
		processors = append(processors, p)
	}
	return processors, nil
}

// ApplyPostProcessors runs processors in sequence; each receives the output of
// the previous one.
func ApplyPostProcessors(processors []PostProcessor, input string) (string, error) {
	output := input
	for _, p := range processors {
		var err error
		output, err = p.Process(output)
		if err != nil {
			return "", err
		}
	}
	return output, nil
}

// TrimTrailingWhitespaceProcessor removes trailing spaces and tabs from each line.
type TrimTrailingWhitespaceProcessor struct{}

// Process implements PostProcessor.
func (TrimTrailingWhitespaceProcessor) Process(input string) (string, error) {
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n"), nil
}
