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

	"github.com/spf13/cobra"

	"viewrender/pkg/renderer"
	"viewrender/pkg/templating"
)

func newCheckCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compile every template and report failures",
		Long: `Compile every template under every configured root.

Each failing template is reported with its location and, when the error
carries one, the offending line. The command fails when any template does.

Example usage:
  viewrender check --config viewrender.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, global)
		},
	}
}

func runCheck(cmd *cobra.Command, global *globalOptions) error {
	cfg, logger, err := global.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	r, err := renderer.New(cfg, logger)
	if err != nil {
		return err
	}

	issues, err := r.Check(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, issue := range issues {
		fmt.Fprintf(out, "%s (%s)\n", issue.File, issue.Root)
		fmt.Fprintln(out, templating.FormatRenderError(issue.Err, issue.File, issue.Source))
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d template(s) failed to compile", len(issues))
	}

	fmt.Fprintln(out, "All templates compiled")
	return nil
}
