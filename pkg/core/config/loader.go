// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadConfig parses YAML configuration and applies default values.
// This is the recommended function for loading configuration from a string.
//
// It performs two operations atomically:
//  1. Parses YAML into Config struct
//  2. Applies default values to unset fields
//
// Example:
//
//	cfg, err := config.LoadConfig(yamlString)
//	if err != nil {
//	    return err
//	}
//	// cfg now has defaults applied and is ready for validation
func LoadConfig(configYAML string) (*Config, error) {
	cfg, err := parseConfig(configYAML)
	if err != nil {
		return nil, err
	}

	setDefaults(cfg)

	return cfg, nil
}

// LoadConfigTOML is LoadConfig for TOML input.
func LoadConfigTOML(configTOML string) (*Config, error) {
	cfg, err := parseConfigTOML(configTOML)
	if err != nil {
		return nil, err
	}

	setDefaults(cfg)

	return cfg, nil
}

// LoadConfigFile reads a configuration file, parsing it as TOML when the
// extension is .toml and as YAML otherwise. Relative view roots are
// resolved against the directory of the file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = LoadConfigTOML(string(data))
	} else {
		cfg, err = LoadConfig(string(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, root := range cfg.Views.Roots {
		if root != "" && !filepath.IsAbs(root) {
			cfg.Views.Roots[i] = filepath.Join(base, root)
		}
	}

	return cfg, nil
}

// parseConfig parses YAML configuration into a Config struct.
// This is a pure function that only parses YAML - it does not apply
// defaults or perform validation.
func parseConfig(configYAML string) (*Config, error) {
	if strings.TrimSpace(configYAML) == "" {
		return nil, fmt.Errorf("config YAML is empty")
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(configYAML), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &cfg, nil
}

// parseConfigTOML parses TOML configuration into a Config struct.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func parseConfigTOML(configTOML string) (*Config, error) {
	if strings.TrimSpace(configTOML) == "" {
		return nil, fmt.Errorf("config TOML is empty")
	}

	var cfg Config
	meta, err := toml.Decode(configTOML, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown TOML key %q", undecoded[0].String())
	}

	return &cfg, nil
}
