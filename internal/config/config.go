package config

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR,default=:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	GinMode        string        `env:"GIN_MODE,default=release"`

	PolicyString string `env:"VALIDATION_POLICY,default=strict"`
	Policy       ValidationPolicy

	QRWidth           int    `env:"QR_WIDTH,default=300"`
	QRMargin          int    `env:"QR_MARGIN,default=2"`
	QRForeground      string `env:"QR_FOREGROUND,default=#000000"`
	QRBackground      string `env:"QR_BACKGROUND,default=#ffffff"`
	QRErrorCorrection string `env:"QR_ERROR_CORRECTION,default=M"`

	CardBackground string  `env:"CARD_BACKGROUND,default=#ffffff"`
	CardPixelRatio float64 `env:"CARD_PIXEL_RATIO,default=2"`

	RenderWorkers int `env:"RENDER_WORKERS,default=4"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
}

// to help with testing
var envProcess = envconfig.Process

var validate = validator.New()

func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Policy = ParsePolicy(cfg.PolicyString)
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	var err error

	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		err = multierr.Append(err, fmt.Errorf("HTTP_ADDR is required"))
	}

	if cfg.RequestTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("REQUEST_TIMEOUT must be positive"))
	}

	if !slices.Contains(AllowedGinModes, strings.ToLower(cfg.GinMode)) {
		err = multierr.Append(err, fmt.Errorf("GIN_MODE must be one of %v", AllowedGinModes))
	}

	if !slices.Contains(AllowedPolicies, ValidationPolicy(strings.ToLower(cfg.PolicyString))) {
		err = multierr.Append(err, fmt.Errorf("VALIDATION_POLICY must be one of %v", AllowedPolicies))
	}

	if cfg.QRWidth < 21 || cfg.QRWidth > 4096 {
		err = multierr.Append(err, fmt.Errorf("QR_WIDTH must be between 21 and 4096"))
	}

	if cfg.QRMargin < 0 || cfg.QRMargin > 16 {
		err = multierr.Append(err, fmt.Errorf("QR_MARGIN must be between 0 and 16"))
	}

	for name, value := range map[string]string{
		"QR_FOREGROUND":   cfg.QRForeground,
		"QR_BACKGROUND":   cfg.QRBackground,
		"CARD_BACKGROUND": cfg.CardBackground,
	} {
		if validate.Var(value, "required,hexcolor") != nil {
			err = multierr.Append(err, fmt.Errorf("%s must be a hex color", name))
		}
	}

	if !slices.Contains(AllowedErrorCorrectionLevels, strings.ToUpper(cfg.QRErrorCorrection)) {
		err = multierr.Append(err, fmt.Errorf("QR_ERROR_CORRECTION must be one of %v", AllowedErrorCorrectionLevels))
	}

	if cfg.CardPixelRatio <= 0 || cfg.CardPixelRatio > 4 {
		err = multierr.Append(err, fmt.Errorf("CARD_PIXEL_RATIO must be in (0, 4]"))
	}

	if cfg.RenderWorkers < 1 {
		err = multierr.Append(err, fmt.Errorf("RENDER_WORKERS must be at least 1"))
	}

	if !slices.Contains(AllowedLogFormats, strings.ToLower(cfg.LogFormat)) {
		err = multierr.Append(err, fmt.Errorf("LOG_FORMAT must be one of %v", AllowedLogFormats))
	}

	return err
}

// ParsePolicy maps a policy name to a ValidationPolicy, defaulting to strict.
func ParsePolicy(s string) ValidationPolicy {
	switch ValidationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyPermissive:
		return PolicyPermissive
	default:
		return PolicyStrict
	}
}
