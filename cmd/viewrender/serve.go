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
	"math"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"viewrender/pkg/renderer"
)

type serveOptions struct {
	addr        string
	metricsAddr string
	watch       bool
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve views over HTTP",
		Long: `Serve views over HTTP until SIGTERM or SIGINT.

GET /users/show renders users/show. A format extension such as .json selects
the format; otherwise the Accept header does. Accept-Language or the locale
query parameter selects localized variants.

Example usage:
  # Serve with configuration file
  viewrender serve --config viewrender.yaml

  # Serve a directory, reload templates on change, expose metrics
  viewrender serve --root app/views --watch --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", "", "HTTP listen address (default: configured server address)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Enable the metrics server on this address")
	flags.BoolVar(&opts.watch, "watch", false, "Invalidate cached templates when files change")

	return cmd
}

func runServe(cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	if opts.addr != "" {
		global.serverAddr = opts.addr
	}
	if opts.metricsAddr != "" {
		global.metricsAddr = opts.metricsAddr
	}
	if opts.watch {
		global.watch = true
	}

	cfg, logger, err := global.load(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var gomemlimit string
	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		gomemlimit = fmt.Sprintf("%d bytes (%.2f MiB)", limit, float64(limit)/(1024*1024))
	} else {
		gomemlimit = "unlimited"
	}

	logger.Info("viewrender starting",
		"addr", cfg.Server.Address,
		"roots", cfg.Views.Roots,
		"metrics", cfg.Metrics.Enabled,
		"watch", cfg.Views.WatchFiles,
		"log_level", cfg.Logging.Level,
		"gomaxprocs", runtime.GOMAXPROCS(0),
		"gomemlimit", gomemlimit)

	r, err := renderer.New(cfg, logger)
	if err != nil {
		return err
	}

	if err := r.Serve(cmd.Context()); err != nil {
		return err
	}

	logger.Info("viewrender shutdown complete")
	return nil
}
