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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"viewrender/pkg/renderer"
)

type renderOptions struct {
	formats  []string
	layout   string
	noLayout bool
	locale   string
	dataFile string
	set      []string
	inline   string
	handler  string
}

func newRenderCmd(global *globalOptions) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [VIEW]",
		Short: "Render a view to standard output",
		Long: `Render a view to standard output.

The view is looked up across the configured roots in format order, wrapped in
the default layout unless --layout or --no-layout says otherwise.

Example usage:
  # Render users/show with locals from a file
  viewrender render users/show --root app/views --data user.yaml

  # Render the JSON variant without a layout
  viewrender render users/show --format json --no-layout --set id=7

  # Prefer the French variant
  viewrender render greeting --locale fr

  # Render inline source that may render partials from the roots
  viewrender render --inline '{{ render_partial("shared/header") }}' --handler gonja`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var viewName string
			if len(args) == 1 {
				viewName = args[0]
			}
			if (viewName == "") == (opts.inline == "") {
				return fmt.Errorf("exactly one of VIEW or --inline is required")
			}
			return runRender(cmd, global, opts, viewName)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.formats, "format", nil, "Accepted formats in priority order (default: configured formats)")
	flags.StringVar(&opts.layout, "layout", "", "Layout to wrap the view in (default: configured default layout)")
	flags.BoolVar(&opts.noLayout, "no-layout", false, "Render without any layout")
	flags.StringVar(&opts.locale, "locale", "", "Locale selecting localized template variants, such as fr or de-CH")
	flags.StringVarP(&opts.dataFile, "data", "d", "", "YAML or JSON file with template locals")
	flags.StringArrayVar(&opts.set, "set", nil, "Template local as key=value, repeatable; overrides --data")
	flags.StringVar(&opts.inline, "inline", "", "Template source to render instead of a view")
	flags.StringVar(&opts.handler, "handler", "", "Handler for --inline: gonja, pongo2, markdown (default: configured default handler)")

	return cmd
}

func runRender(cmd *cobra.Command, global *globalOptions, opts *renderOptions, viewName string) error {
	cfg, logger, err := global.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	locals, err := loadLocals(opts.dataFile, opts.set)
	if err != nil {
		return err
	}

	locale := language.Und
	if opts.locale != "" {
		if locale, err = language.Parse(opts.locale); err != nil {
			return fmt.Errorf("invalid locale %q: %w", opts.locale, err)
		}
	}

	r, err := renderer.New(cfg, logger)
	if err != nil {
		return err
	}

	result, err := r.Render(cmd.Context(), renderer.Request{
		View:     viewName,
		Inline:   opts.inline,
		Handler:  opts.handler,
		Formats:  opts.formats,
		Locale:   locale,
		Layout:   opts.layout,
		NoLayout: opts.noLayout,
		Locals:   locals,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), result.Body)
	return err
}

// loadLocals reads template locals from a YAML or JSON file and applies
// key=value overrides.
func loadLocals(dataFile string, set []string) (map[string]any, error) {
	locals := map[string]any{}
	if dataFile != "" {
		data, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		if err := yaml.Unmarshal(data, &locals); err != nil {
			return nil, fmt.Errorf("failed to parse data file %s: %w", dataFile, err)
		}
		if locals == nil {
			locals = map[string]any{}
		}
	}

	for _, kv := range set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		locals[key] = value
	}
	return locals, nil
}
