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
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"viewrender/pkg/core/config"
	"viewrender/pkg/core/logging"
)

// ConfigEnvVar names the environment variable holding the configuration
// file path when --config is not given.
const ConfigEnvVar = "VIEWRENDER_CONFIG"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	roots      []string
	logLevel   string
	logFormat  string

	// Set by serve before load.
	serverAddr  string
	metricsAddr string
	watch       bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "viewrender",
		Short: "Resolve and render view templates with layouts and partials",
		Long: `viewrender resolves view templates across ordered roots, renders them
with layouts, partials and captures, and serves them over HTTP.

Configuration is loaded from:
1. Command-line flags (highest priority)
2. The file named by --config or VIEWRENDER_CONFIG
3. Default values (lowest priority)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "",
		"Path to a YAML or TOML configuration file (env: "+ConfigEnvVar+")")
	flags.StringSliceVar(&opts.roots, "root", nil,
		"Template root directory, repeatable; replaces the configured roots")
	flags.StringVar(&opts.logLevel, "log-level", "",
		"Log level: DEBUG, INFO, WARN, ERROR")
	flags.StringVar(&opts.logFormat, "log-format", "",
		"Log format: text, json")

	cmd.AddCommand(
		newRenderCmd(opts),
		newCheckCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// load resolves the configuration and builds the logger. Logs go to
// stderr so rendered output on stdout stays clean.
func (o *globalOptions) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	configFile := o.configFile
	if configFile == "" {
		configFile = os.Getenv(ConfigEnvVar)
	}

	var cfg *config.Config
	if configFile != "" {
		var err error
		if cfg, err = config.LoadConfigFile(configFile); err != nil {
			return nil, nil, err
		}
	} else {
		cfg = config.Default()
	}

	if len(o.roots) > 0 {
		cfg.Views.Roots = o.roots
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if o.serverAddr != "" {
		cfg.Server.Address = o.serverAddr
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = o.metricsAddr
	}
	if o.watch {
		cfg.Views.WatchFiles = true
	}

	if err := config.ValidateStructure(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLoggerWithWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, logger, nil
}
