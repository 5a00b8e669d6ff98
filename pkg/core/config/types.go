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

// Package config provides data models for the renderer configuration.
//
// These models represent the structure of the YAML or TOML configuration
// file passed to the viewrender binary.
package config

import "viewrender/pkg/templating"

// Config is the root configuration structure.
type Config struct {
	// Views configures template roots and lookup behavior.
	Views ViewsConfig `yaml:"views" toml:"views"`

	// Logging configures logging behavior.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Metrics configures the Prometheus metrics endpoint.
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`

	// Server configures the HTTP server of "viewrender serve".
	Server ServerConfig `yaml:"server" toml:"server"`

	// PostProcessors run in order on the output of every top-level render.
	//
	// Example:
	//   post_processors:
	//     - type: regex_replace
	//       params:
	//         pattern: "^[ ]+"
	//         replace: ""
	PostProcessors []templating.PostProcessorConfig `yaml:"post_processors" toml:"post_processors"`
}

// ViewsConfig configures how views are located.
type ViewsConfig struct {
	// Roots are the template directories, searched in order. Relative
	// paths are resolved against the directory of the configuration file.
	//
	// Example: ["app/views", "vendor/views"]
	Roots []string `yaml:"roots" toml:"roots"`

	// Formats are the accepted output formats in priority order, used when
	// a request does not negotiate its own.
	// Default: ["html"]
	Formats []string `yaml:"formats" toml:"formats"`

	// DefaultLayout is applied to file renders that do not name a layout.
	// Empty disables the default layout.
	//
	// Example: "layouts/application"
	DefaultLayout string `yaml:"default_layout" toml:"default_layout"`

	// DefaultHandler compiles inline templates that do not name a handler.
	// One of gonja, pongo2, markdown.
	// Default: gonja
	DefaultHandler string `yaml:"default_handler" toml:"default_handler"`

	// Locales are the locales offered during Accept-Language negotiation
	// (BCP 47 tags). Empty disables localized lookups.
	//
	// Example: ["en", "de", "de-CH"]
	Locales []string `yaml:"locales" toml:"locales"`

	// CacheTemplates keeps compiled templates in memory.
	// Default: true
	CacheTemplates *bool `yaml:"cache_templates" toml:"cache_templates"`

	// WatchFiles invalidates cached templates when files under the roots
	// change.
	// Default: false
	WatchFiles bool `yaml:"watch_files" toml:"watch_files"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level is one of ERROR, WARNING, INFO, DEBUG.
	// Default: INFO
	Level string `yaml:"level" toml:"level"`

	// Format is "text" (logfmt) or "json".
	// Default: text
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled starts the metrics server alongside "viewrender serve".
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Address is the listen address of the metrics server.
	// Default: :9090
	Address string `yaml:"address" toml:"address"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Address is the listen address.
	// Default: :8080
	Address string `yaml:"address" toml:"address"`

	// ReadTimeout bounds reading a request, including headers.
	// Format: Go duration string (e.g., "10s")
	// Default: 10s
	ReadTimeout string `yaml:"read_timeout" toml:"read_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Format: Go duration string (e.g., "5s")
	// Default: 5s
	ShutdownTimeout string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}
