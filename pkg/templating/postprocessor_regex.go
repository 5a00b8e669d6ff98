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
	"regexp"
	"strings"
)

// RegexReplaceProcessor applies regex-based find/replace to rendered output.
//
// The pattern is applied to each line independently, so line-anchored
// patterns such as ^\s+ or \s+$ behave as expected.
//
// Example usage for collapsing blank runs between HTML tags:
//
//	processor, err := NewRegexReplaceProcessor(`>\s+<`, "><")
//	compact, err := processor.Process(page)
type RegexReplaceProcessor struct {
	pattern *regexp.Regexp
	replace string
}

// NewRegexReplaceProcessor creates a new regex replace processor.
//
// The replacement may reference capture groups ($1, ${name}).
// Returns an error if the regex pattern is invalid.
func NewRegexReplaceProcessor(pattern, replace string) (*RegexReplaceProcessor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}

	return &RegexReplaceProcessor{
		pattern: re,
		replace: replace,
	}, nil
}

// Process applies the regex replacement to each line of the input.
func (p *RegexReplaceProcessor) Process(input string) (string, error) {
	if input == "" {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for i, line := range strings.Split(input, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.pattern.ReplaceAllString(line, p.replace))
	}
	return b.String(), nil
}
