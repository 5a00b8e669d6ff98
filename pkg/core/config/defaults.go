package config

import "time"

// Default values for configuration fields.
const (
	// DefaultFormat is the output format used when none is configured.
	DefaultFormat = "html"

	// DefaultHandler is the handler compiling inline templates.
	DefaultHandler = "gonja"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "INFO"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"

	// DefaultMetricsAddress is the default listen address for Prometheus metrics.
	DefaultMetricsAddress = ":9090"

	// DefaultServerAddress is the default listen address of the HTTP server.
	DefaultServerAddress = ":8080"

	// DefaultReadTimeout is the default request read timeout.
	DefaultReadTimeout = 10 * time.Second

	// DefaultShutdownTimeout is the default graceful shutdown timeout.
	DefaultShutdownTimeout = 5 * time.Second
)

// setDefaults applies default values to unset configuration fields.
// This modifies the config in-place and should be called after parsing
// the configuration and before validation.
//
// Most callers should use LoadConfig() instead. This function is primarily
// useful for testing default application independently from parsing.
func setDefaults(cfg *Config) {
	// Views defaults
	if len(cfg.Views.Formats) == 0 {
		cfg.Views.Formats = []string{DefaultFormat}
	}
	if cfg.Views.DefaultHandler == "" {
		cfg.Views.DefaultHandler = DefaultHandler
	}
	if cfg.Views.CacheTemplates == nil {
		enabled := true
		cfg.Views.CacheTemplates = &enabled
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	// Metrics defaults
	// Note: Enabled defaults to false (zero value) which is correct
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = DefaultMetricsAddress
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultServerAddress
	}
}

// Default returns a configuration with every default applied and the
// given view roots. It is used when no configuration file is given.
func Default(roots ...string) *Config {
	cfg := &Config{Views: ViewsConfig{Roots: roots}}
	setDefaults(cfg)
	return cfg
}

// CacheEnabled reports whether compiled templates are cached. Unset means
// enabled.
func (v *ViewsConfig) CacheEnabled() bool {
	return v.CacheTemplates == nil || *v.CacheTemplates
}

// GetReadTimeout returns the configured read timeout or the default if not
// specified or invalid.
func (s *ServerConfig) GetReadTimeout() time.Duration {
	if s.ReadTimeout != "" {
		if duration, err := time.ParseDuration(s.ReadTimeout); err == nil {
			return duration
		}
	}
	return DefaultReadTimeout
}

// GetShutdownTimeout returns the configured shutdown timeout or the default
// if not specified or invalid.
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout != "" {
		if duration, err := time.ParseDuration(s.ShutdownTimeout); err == nil {
			return duration
		}
	}
	return DefaultShutdownTimeout
}
