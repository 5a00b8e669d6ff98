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
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultFilters returns the custom filters registered on the default gonja
// handler in addition to gonja's builtins.
func DefaultFilters() map[string]FilterFunc {
	return map[string]FilterFunc{
		"glob_match": GlobMatch,
		"pluralize":  Pluralize,
		"titleize":   Titleize,
	}
}

// GlobMatch keeps the strings of a list that match a path.Match pattern.
// Non-string items are dropped.
//
//	{%- for name in widgets | glob_match("sidebar_*") %}
//	  {{ render_partial("shared/" ~ name) }}
//	{%- endfor %}
func GlobMatch(in interface{}, args ...interface{}) (interface{}, error) {
	var items []interface{}
	switch v := in.(type) {
	case []interface{}:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("glob_match: input must be a list, got %T", in)
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("glob_match: expected 1 pattern argument, got %d", len(args))
	}
	pattern, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("glob_match: pattern must be a string, got %T", args[0])
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("glob_match: invalid pattern %q: %w", pattern, err)
	}

	matched := []interface{}{}
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if ok, _ := path.Match(pattern, s); ok {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// Pluralize formats a count with the singular or plural noun.
// The plural defaults to the singular with an "s" appended.
//
//	{{ comments | length | pluralize("comment") }}      -> 3 comments
//	{{ people | length | pluralize("person", "people") }} -> 1 person
func Pluralize(in interface{}, args ...interface{}) (interface{}, error) {
	var n int64
	switch v := in.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		n = int64(v)
	default:
		return nil, fmt.Errorf("pluralize: input must be a number, got %T", in)
	}

	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("pluralize: expected singular and optional plural, got %d arguments", len(args))
	}
	singular, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("pluralize: singular must be a string, got %T", args[0])
	}
	plural := singular + "s"
	if len(args) == 2 {
		if plural, ok = args[1].(string); !ok {
			return nil, fmt.Errorf("pluralize: plural must be a string, got %T", args[1])
		}
	}

	if n == 1 || n == -1 {
		return fmt.Sprintf("%d %s", n, singular), nil
	}
	return fmt.Sprintf("%d %s", n, plural), nil
}

// Titleize turns a logical name such as "user_profiles" into "User Profiles".
// An optional BCP 47 tag selects language specific casing rules.
func Titleize(in interface{}, args ...interface{}) (interface{}, error) {
	s, ok := in.(string)
	if !ok {
		return nil, fmt.Errorf("titleize: input must be a string, got %T", in)
	}

	tag := language.Und
	if len(args) > 0 {
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("titleize: language must be a string, got %T", args[0])
		}
		var err error
		if tag, err = language.Parse(name); err != nil {
			return nil, fmt.Errorf("titleize: %w", err)
		}
	}

	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	return cases.Title(tag).String(strings.Join(words, " ")), nil
}
