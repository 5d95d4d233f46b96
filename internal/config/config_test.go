package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func validConfig() Config {
	return Config{
		HTTPAddr:          ":8080",
		RequestTimeout:    10 * time.Second,
		GinMode:           "release",
		PolicyString:      "strict",
		QRWidth:           300,
		QRMargin:          2,
		QRForeground:      "#000000",
		QRBackground:      "#ffffff",
		QRErrorCorrection: "M",
		CardBackground:    "#fff",
		CardPixelRatio:    2,
		RenderWorkers:     4,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name          string
		setupEnv      func(context.Context, *Config) error
		expectError   bool
		errorContains string
		validate      func(*testing.T, *Config)
	}{
		{
			name: "valid configuration with defaults",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				*cfg = validConfig()
				return nil
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, PolicyStrict, cfg.Policy)
				assert.Equal(t, 300, cfg.QRWidth)
				assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
			},
		},
		{
			name: "permissive policy",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				*cfg = validConfig()
				cfg.PolicyString = "Permissive"
				return nil
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, PolicyPermissive, cfg.Policy)
			},
		},
		{
			name: "env processing error",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				return errors.New("env: QR_WIDTH: invalid syntax")
			},
			expectError:   true,
			errorContains: "failed to process env config",
		},
		{
			name: "validation error after successful env processing",
			setupEnv: func(ctx context.Context, cfg *Config) error {
				*cfg = validConfig()
				cfg.QRErrorCorrection = "X"
				return nil
			},
			expectError:   true,
			errorContains: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalEnvProcess := envProcess
			defer func() { envProcess = originalEnvProcess }()

			envProcess = func(ctx context.Context, v any, mus ...envconfig.Mutator) error {
				return tt.setupEnv(ctx, v.(*Config))
			}

			cfg, err := LoadConfigFromEnv(context.Background())

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}

			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		errorContains []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:          "empty addr",
			mutate:        func(c *Config) { c.HTTPAddr = " " },
			errorContains: []string{"HTTP_ADDR is required"},
		},
		{
			name:          "bad colors",
			mutate:        func(c *Config) { c.QRForeground = "black"; c.CardBackground = "#zzzzzz" },
			errorContains: []string{"QR_FOREGROUND must be a hex color", "CARD_BACKGROUND must be a hex color"},
		},
		{
			name: "several errors are combined",
			mutate: func(c *Config) {
				c.QRWidth = 10
				c.RenderWorkers = 0
				c.PolicyString = "lenient"
			},
			errorContains: []string{
				"QR_WIDTH must be between 21 and 4096",
				"RENDER_WORKERS must be at least 1",
				"VALIDATION_POLICY must be one of",
			},
		},
		{
			name:          "pixel ratio out of range",
			mutate:        func(c *Config) { c.CardPixelRatio = 0 },
			errorContains: []string{"CARD_PIXEL_RATIO"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := validateConfig(&cfg)
			if len(tt.errorContains) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Len(t, multierr.Errors(err), len(tt.errorContains))
			for _, substr := range tt.errorContains {
				assert.Contains(t, err.Error(), substr)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyStrict, ParsePolicy(""))
	assert.Equal(t, PolicyStrict, ParsePolicy("strict"))
	assert.Equal(t, PolicyPermissive, ParsePolicy(" PERMISSIVE "))
	assert.Equal(t, PolicyStrict, ParsePolicy("unknown"))
}
