package resio

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// configOptions holds configuration for LoadConfig and ParseConfig.
type configOptions struct {
	validator *validator.Validate
	fs        afero.Fs
}

// ConfigOption configures LoadConfig and ParseConfig.
type ConfigOption func(*configOptions)

// WithValidator sets a custom validator instance for configuration checks.
// Use this to register additional validation rules:
//
//	v := validator.New()
//	v.RegisterValidation("custom", customFunc)
//
//	cfg, err := resio.LoadConfig("resio.yaml", resio.WithValidator(v))
func WithValidator(v *validator.Validate) ConfigOption {
	return func(c *configOptions) {
		c.validator = v
	}
}

// WithConfigFs reads the configuration file from fs instead of DefaultFs.
func WithConfigFs(fs afero.Fs) ConfigOption {
	return func(c *configOptions) {
		c.fs = fs
	}
}
