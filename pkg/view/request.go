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

// Kind identifies the variant of a Request.
type Kind int

const (
	KindFile Kind = iota
	KindInline
	KindText
	KindPartial
	KindDefaultPartial
	KindUpdate
	KindBlock
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindInline:
		return "inline"
	case KindText:
		return "text"
	case KindPartial:
		return "partial"
	case KindDefaultPartial:
		return "default_partial"
	case KindUpdate:
		return "update"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Kinds lists every request kind.
func Kinds() []Kind {
	return []Kind{KindFile, KindInline, KindText, KindPartial, KindDefaultPartial, KindUpdate, KindBlock}
}

// Request is a single render request. The set of implementations is closed:
// File, Inline, Text, Partial, DefaultPartial, Update and Block.
type Request interface {
	Kind() Kind
	options() Options
}

// Options are shared by every request kind.
type Options struct {
	// Layout names the layout wrapping the output. Empty means none.
	Layout string

	// Locals are bound in the rendered template's scope.
	Locals map[string]any
}

func (o Options) options() Options { return o }

// File renders a named template looked up through the resolver.
type File struct {
	Options
	Name string

	// Status is the response status, only used in the render log line.
	Status int

	// LayoutOptional skips a layout that cannot be found instead of
	// failing the render.
	LayoutOptional bool
}

// Kind implements Request.
func (File) Kind() Kind { return KindFile }

// Inline renders template source that has no backing file.
type Inline struct {
	Options
	Source string

	// Type names the handler compiling Source ("gonja", "pongo2",
	// "markdown"). Empty selects the default handler.
	Type string
}

// Kind implements Request.
func (Inline) Kind() Kind { return KindInline }

// Text renders literal text.
type Text struct {
	Options
	Text string
}

// Kind implements Request.
func (Text) Kind() Kind { return KindText }

// Partial renders a partial once, for an object, or per collection item.
type Partial struct {
	Options

	// Name of the partial without the underscore, e.g. "shared/item".
	// Derived from Object or the first collection item when empty.
	Name string

	// Object is bound to the implicit name and to "object".
	Object any

	// Collection is any slice or array. A non-nil empty collection renders
	// as "".
	Collection any

	// Spacer names a partial rendered between collection items.
	Spacer string

	// As overrides the implicit local name (default: the partial base name).
	As string
}

// Kind implements Request.
func (Partial) Kind() Kind { return KindPartial }

// DefaultPartial renders a partial by name, or when Name is empty by the
// name derived from Object.
type DefaultPartial struct {
	Options
	Name   string
	Object any
}

// Kind implements Request.
func (DefaultPartial) Kind() Kind { return KindDefaultPartial }

// Update builds a JavaScript update script. The output is never wrapped in
// a layout.
type Update struct {
	Options
	Page func(page *UpdatePage) error
}

// Kind implements Request.
func (Update) Kind() Kind { return KindUpdate }

// Block renders Layout as a partial with Body as the content it yields.
type Block struct {
	Options
	Body CaptureFunc
}

// Kind implements Request.
func (Block) Kind() Kind { return KindBlock }
