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
	"context"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Lookup describes what to resolve.
type Lookup struct {
	// Name is the logical name ("show", "users/show") or an explicit file
	// name containing a dot ("users/show.html.j2", "users/show.xml").
	Name string

	// Formats are the accepted formats in priority order. Empty uses the
	// resolver defaults.
	Formats []string

	// Prefix is the namespace prepended to names without a directory.
	Prefix string

	// Fallback also tries the root level after Prefix. Layout lookups use
	// it so a namespaced render still finds a global layout.
	Fallback bool

	// Partial selects the "_name" file convention.
	Partial bool

	// Locale is a BCP 47 tag. When set, localized variants are tried before
	// plain files.
	Locale string
}

// PathResolver finds templates across the store roots. Root order is the
// outer loop and candidate order the inner loop, so later roots act as
// fallbacks; the first existing candidate wins.
type PathResolver struct {
	store          *Store
	defaultFormats []string
}

// NewPathResolver creates a resolver over store. defaultFormats apply to
// lookups without formats; "html" is used when none are given.
func NewPathResolver(store *Store, defaultFormats ...string) *PathResolver {
	if len(defaultFormats) == 0 {
		defaultFormats = []string{"html"}
	}
	return &PathResolver{
		store:          store,
		defaultFormats: slices.Clone(defaultFormats),
	}
}

// Resolve returns the first template matching l, or *NotFoundError.
func (r *PathResolver) Resolve(ctx context.Context, l Lookup) (*Template, error) {
	if strings.TrimSpace(l.Name) == "" {
		return nil, ErrNoTemplate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := r.Candidates(l)
	for i := range r.store.roots {
		for _, c := range candidates {
			if r.store.Exists(i, c) {
				return r.store.Load(ctx, i, c)
			}
		}
	}

	roots := make([]string, len(r.store.roots))
	for i, root := range r.store.roots {
		roots[i] = root.Path
	}
	return nil, newNotFoundError(l.Name, roots, candidates)
}

// Candidates returns the file names tried within each root, in order:
// prefixes x formats x {localized, plain} x handler extensions, followed by
// format-less files per prefix. The prefix is the directory of a qualified
// name, else Prefix (then the root level when Fallback is set), else the
// root level.
func (r *PathResolver) Candidates(l Lookup) []string {
	name := strings.TrimPrefix(path.Clean(l.Name), "/")
	dir, base := path.Split(name)
	dir = strings.TrimSuffix(dir, "/")
	if l.Partial && !strings.HasPrefix(base, "_") {
		base = "_" + base
	}
	exts := r.store.registry.Extensions()

	if strings.Contains(base, ".") {
		return explicitCandidates(path.Join(dir, base), exts)
	}

	var prefixes []string
	switch {
	case dir != "":
		prefixes = []string{dir}
	case l.Prefix != "" && l.Fallback:
		prefixes = []string{strings.Trim(l.Prefix, "/"), ""}
	case l.Prefix != "":
		prefixes = []string{strings.Trim(l.Prefix, "/")}
	default:
		prefixes = []string{""}
	}

	formats := l.Formats
	if len(formats) == 0 {
		formats = r.defaultFormats
	}
	locales := localeVariants(l.Locale)

	var out []string
	for _, prefix := range prefixes {
		stem := path.Join(prefix, base)
		for _, format := range formats {
			for _, loc := range locales {
				for _, ext := range exts {
					out = append(out, stem+loc+"."+format+"."+ext)
				}
			}
		}
		for _, ext := range exts {
			out = append(out, stem+"."+ext)
		}
	}
	return out
}

// explicitCandidates handles names that already carry a format or
// extension: the name itself when it ends in a handler extension, else the
// name with every handler extension appended.
func explicitCandidates(name string, exts []string) []string {
	if i := strings.LastIndex(name, "."); i >= 0 && slices.Contains(exts, strings.ToLower(name[i+1:])) {
		return []string{name}
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		out = append(out, name+"."+ext)
	}
	return out
}

// localeVariants returns the file-name segments to try for a locale, most
// specific first, always ending with the plain variant "".
func localeVariants(locale string) []string {
	if locale == "" {
		return []string{""}
	}
	out := []string{"." + locale}
	if tag, err := language.Parse(locale); err == nil {
		if base, conf := tag.Base(); conf != language.No && base.String() != locale {
			out = append(out, "."+base.String())
		}
	}
	return append(out, "")
}
