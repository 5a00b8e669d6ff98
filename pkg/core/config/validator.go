package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/text/language"

	"viewrender/pkg/core/logging"
	"viewrender/pkg/templating"
)

// ValidateStructure performs structural validation on the configuration.
// Validates required fields, value formats and cross-field constraints.
// Does NOT check that roots exist or that templates compile.
func ValidateStructure(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// Validate Views config
	if err := validateViewsConfig(&cfg.Views); err != nil {
		return fmt.Errorf("views: %w", err)
	}

	// Validate Logging config
	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	// Validate Server and Metrics addresses
	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validateMetricsConfig(&cfg.Metrics, &cfg.Server); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Validate PostProcessors
	if _, err := templating.NewPostProcessors(cfg.PostProcessors); err != nil {
		return fmt.Errorf("post_processors: %w", err)
	}

	return nil
}

// validateViewsConfig validates the views configuration.
func validateViewsConfig(vc *ViewsConfig) error {
	if len(vc.Roots) == 0 {
		return fmt.Errorf("roots cannot be empty")
	}
	for i, root := range vc.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("roots[%d] cannot be empty", i)
		}
	}

	for i, format := range vc.Formats {
		if !validFormatName(format) {
			return fmt.Errorf("formats[%d]: invalid format %q", i, format)
		}
	}

	if _, err := templating.ParseHandlerType(vc.DefaultHandler); err != nil {
		return fmt.Errorf("default_handler: %w", err)
	}

	for i, locale := range vc.Locales {
		if _, err := language.Parse(locale); err != nil {
			return fmt.Errorf("locales[%d]: %w", i, err)
		}
	}

	return nil
}

// validFormatName accepts lowercase alphanumeric format tags such as html.
func validFormatName(format string) bool {
	if format == "" {
		return false
	}
	for _, r := range format {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// validateLoggingConfig validates the logging configuration.
func validateLoggingConfig(lc *LoggingConfig) error {
	if !logging.ValidLevel(lc.Level) {
		return fmt.Errorf("level must be ERROR, WARNING, INFO or DEBUG, got %q", lc.Level)
	}

	if !logging.ValidFormat(lc.Format) {
		return fmt.Errorf("format must be text or json, got %q", lc.Format)
	}

	return nil
}

// validateServerConfig validates the HTTP server configuration.
func validateServerConfig(sc *ServerConfig) error {
	if err := validateAddress(sc.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}

	for name, value := range map[string]string{
		"read_timeout":     sc.ReadTimeout,
		"shutdown_timeout": sc.ShutdownTimeout,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, value)
		}
	}

	return nil
}

// validateMetricsConfig validates the metrics configuration. The address is
// only checked when metrics are enabled.
func validateMetricsConfig(mc *MetricsConfig, sc *ServerConfig) error {
	if !mc.Enabled {
		return nil
	}

	if err := validateAddress(mc.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}

	if mc.Address == sc.Address {
		return fmt.Errorf("address cannot be the same as server address (%s)", mc.Address)
	}

	return nil
}

// validateAddress checks a host:port listen address.
func validateAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if port == "" {
		return fmt.Errorf("port cannot be empty in %q", addr)
	}
	return nil
}
