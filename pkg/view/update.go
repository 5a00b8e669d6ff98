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

package view

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InsertPosition is where Insert places content relative to an element.
type InsertPosition string

const (
	InsertTop    InsertPosition = "top"
	InsertBottom InsertPosition = "bottom"
	InsertBefore InsertPosition = "before"
	InsertAfter  InsertPosition = "after"
)

var insertAdjacent = map[InsertPosition]string{
	InsertTop:    "afterbegin",
	InsertBottom: "beforeend",
	InsertBefore: "beforebegin",
	InsertAfter:  "afterend",
}

// UpdatePage builds the JavaScript returned by an Update request. Every
// statement addresses DOM elements by id; arguments are JSON encoded.
type UpdatePage struct {
	render     func(Request) (string, error)
	statements []string
}

func newUpdatePage(render func(Request) (string, error)) *UpdatePage {
	return &UpdatePage{render: render}
}

// Render renders req within the running render, e.g. a partial whose
// output is then passed to ReplaceHTML.
func (p *UpdatePage) Render(req Request) (string, error) {
	if p.render == nil {
		return "", fmt.Errorf("view: update page has no renderer")
	}
	return p.render(req)
}

// ReplaceHTML replaces the inner HTML of element id.
func (p *UpdatePage) ReplaceHTML(id, html string) {
	p.statements = append(p.statements,
		fmt.Sprintf("document.getElementById(%s).innerHTML = %s;", jsString(id), jsString(html)))
}

// Insert inserts html relative to element id.
func (p *UpdatePage) Insert(position InsertPosition, id, html string) error {
	where, ok := insertAdjacent[position]
	if !ok {
		return fmt.Errorf("view: unknown insert position %q", position)
	}
	p.statements = append(p.statements,
		fmt.Sprintf("document.getElementById(%s).insertAdjacentHTML(%s, %s);", jsString(id), jsString(where), jsString(html)))
	return nil
}

// Remove removes the elements with the given ids.
func (p *UpdatePage) Remove(ids ...string) {
	for _, id := range ids {
		p.statements = append(p.statements,
			fmt.Sprintf("document.getElementById(%s).remove();", jsString(id)))
	}
}

// Call calls a global JavaScript function with JSON encoded arguments.
func (p *UpdatePage) Call(function string, args ...any) error {
	encoded := make([]string, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("view: encoding argument %d of %s: %w", i, function, err)
		}
		encoded[i] = string(b)
	}
	p.statements = append(p.statements, fmt.Sprintf("%s(%s);", function, strings.Join(encoded, ", ")))
	return nil
}

// String returns the script, one statement per line.
func (p *UpdatePage) String() string {
	return strings.Join(p.statements, "\n")
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
