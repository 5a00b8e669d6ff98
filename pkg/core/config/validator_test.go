package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewrender/pkg/templating"
)

func validConfig() *Config {
	cfg := &Config{
		Views: ViewsConfig{
			Roots:   []string{"app/views"},
			Locales: []string{"en", "de-CH"},
		},
	}
	setDefaults(cfg)
	return cfg
}

func TestValidateStructure_Success(t *testing.T) {
	assert.NoError(t, ValidateStructure(validConfig()))
}

func TestValidateStructure_NilConfig(t *testing.T) {
	err := ValidateStructure(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is nil")
}

func TestValidateStructure_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "no roots",
			mutate:  func(cfg *Config) { cfg.Views.Roots = nil },
			wantErr: "views: roots cannot be empty",
		},
		{
			name:    "blank root",
			mutate:  func(cfg *Config) { cfg.Views.Roots = []string{"views", " "} },
			wantErr: "views: roots[1] cannot be empty",
		},
		{
			name:    "invalid format",
			mutate:  func(cfg *Config) { cfg.Views.Formats = []string{"html", "X-ML"} },
			wantErr: `views: formats[1]: invalid format "X-ML"`,
		},
		{
			name:    "unknown handler",
			mutate:  func(cfg *Config) { cfg.Views.DefaultHandler = "erb" },
			wantErr: "views: default_handler",
		},
		{
			name:    "invalid locale",
			mutate:  func(cfg *Config) { cfg.Views.Locales = []string{"en", "not a locale"} },
			wantErr: "views: locales[1]",
		},
		{
			name:    "invalid log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "TRACE" },
			wantErr: "logging: level must be",
		},
		{
			name:    "invalid log format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "logfmt" },
			wantErr: "logging: format must be text or json",
		},
		{
			name:    "invalid server address",
			mutate:  func(cfg *Config) { cfg.Server.Address = "8080" },
			wantErr: "server: address",
		},
		{
			name:    "invalid timeout",
			mutate:  func(cfg *Config) { cfg.Server.ReadTimeout = "-1s" },
			wantErr: "server: read_timeout must be positive",
		},
		{
			name: "metrics address clash",
			mutate: func(cfg *Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Address = cfg.Server.Address
			},
			wantErr: "metrics: address cannot be the same as server address",
		},
		{
			name: "invalid post-processor",
			mutate: func(cfg *Config) {
				cfg.PostProcessors = []templating.PostProcessorConfig{{Type: "uppercase"}}
			},
			wantErr: "post_processors: post-processor 0: unknown post-processor type: uppercase",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStructure(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStructure_MetricsDisabledSkipsAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Metrics.Address = "nonsense"

	assert.NoError(t, ValidateStructure(cfg))
}
