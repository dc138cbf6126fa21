package resio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/arloliu/resio/vault"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config describes a Loader in YAML.
//
//	baseDir: /srv/app
//	timeout: 10s
//	maxSize: 16MiB
//	http:
//	  timeout: 30s
//	env:
//	  enabled: true
//	dotenv:
//	  enabled: true
//	  files: [.env, .env.local]
//	prefixes:
//	  - prefix: "custom:"
//	    dir: /srv/custom
//	cache:
//	  size: 256
//	vault:
//	  address: https://vault.example.com:8200
//	  token: s.xxxxx
type Config struct {
	BaseDir  string         `yaml:"baseDir" json:"baseDir"`
	Timeout  time.Duration  `yaml:"timeout" json:"timeout" validate:"gte=0"`
	MaxSize  ByteSize       `yaml:"maxSize" json:"maxSize" default:"16777216" validate:"gt=0"`
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	Env      EnvConfig      `yaml:"env" json:"env"`
	Dotenv   DotenvConfig   `yaml:"dotenv" json:"dotenv"`
	Prefixes []PrefixConfig `yaml:"prefixes" json:"prefixes" validate:"unique=Prefix,dive"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Vault    *VaultConfig   `yaml:"vault" json:"vault,omitempty"`
}

// HTTPConfig configures the client for http:// and https:// locations.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout" default:"30s" validate:"gte=0"`
}

// EnvConfig controls the env: resolver.
type EnvConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" default:"true"`
}

// DotenvConfig controls the dotenv: resolver and dotenv preloading.
type DotenvConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled" default:"true"`
	Files    []string `yaml:"files" json:"files"`       // loaded into the process environment; missing files are skipped
	Override bool     `yaml:"override" json:"override"` // if true, files override existing variables
}

// PrefixConfig maps a location prefix onto a directory.
type PrefixConfig struct {
	Prefix string `yaml:"prefix" json:"prefix" validate:"required,endswith=:"`
	Dir    string `yaml:"dir" json:"dir" validate:"required"`
}

// CacheConfig enables caching of prefix resolution outcomes.
type CacheConfig struct {
	Size int `yaml:"size" json:"size" validate:"gte=0"` // 0 disables the cache
}

// VaultConfig enables the vault: resolver.
type VaultConfig struct {
	Address   string `yaml:"address" json:"address" validate:"required,url"`
	Token     string `yaml:"token" json:"-"`
	Namespace string `yaml:"namespace" json:"namespace,omitempty"`
	// AppRole authentication, used when Token is empty.
	RoleID   string `yaml:"roleId" json:"roleId,omitempty" validate:"required_with=SecretID"`
	SecretID string `yaml:"secretId" json:"-"`
	// Kubernetes authentication, used when Token and RoleID are empty.
	KubernetesRole string `yaml:"kubernetesRole" json:"kubernetesRole,omitempty"`
	JWTPath        string `yaml:"jwtPath" json:"jwtPath,omitempty" default:"/var/run/secrets/kubernetes.io/serviceaccount/token"`
}

// LoadConfig reads and validates the YAML configuration file at path.
func LoadConfig(path string, opts ...ConfigOption) (*Config, error) {
	o := applyConfigOptions(opts)

	data, err := afero.ReadFile(o.fs, path)
	if err != nil {
		return nil, err
	}

	cfg, err := parseConfig(data, o)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return cfg, nil
}

// ParseConfig parses and validates YAML configuration data.
func ParseConfig(data []byte, opts ...ConfigOption) (*Config, error) {
	return parseConfig(data, applyConfigOptions(opts))
}

func applyConfigOptions(opts []ConfigOption) *configOptions {
	o := &configOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.fs == nil {
		o.fs = DefaultFs
	}
	if o.validator == nil {
		o.validator = validator.New()
	}

	return o
}

func parseConfig(data []byte, o *configOptions) (*Config, error) {
	cfg := &Config{}
	// Defaults first so explicit values, including false, win.
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Vault != nil {
		if err := defaults.Set(cfg.Vault); err != nil {
			return nil, fmt.Errorf("failed to apply defaults: %w", err)
		}
	}

	if err := o.validator.Struct(cfg); err != nil {
		return nil, toValidationError(err)
	}

	return cfg, nil
}

// toValidationError converts validator errors into FieldErrors.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Errors: []error{err}}
	}

	out := &ValidationError{Errors: make([]error, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, &FieldError{
			Path:    fe.Namespace(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprint(fe.Value()),
			Message: "failed validation",
		})
	}

	return out
}

// FromConfig returns a Builder configured from cfg.
//
// Resolvers are registered in this order: prefixes (in file order), env,
// dotenv, vault. Dotenv files are loaded into the process environment
// before the builder is returned.
func FromConfig(cfg *Config) *Builder {
	b := New()
	if cfg == nil {
		b.err = errors.New("nil config")

		return b
	}

	b.WithBaseDir(cfg.BaseDir).
		WithTimeout(cfg.Timeout).
		WithMaxSize(cfg.MaxSize.Int64()).
		WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout})

	for _, p := range cfg.Prefixes {
		var r ProtocolResolver = NewPrefixResolver(p.Prefix, nil, p.Dir)
		if cfg.Cache.Size > 0 {
			r = NewCachedResolver(r, cfg.Cache.Size)
		}
		b.WithProtocolResolver(r)
	}

	if cfg.Env.Enabled {
		b.WithProtocolResolver(NewEnvResolver())
	}

	if err := loadDotenvFiles(cfg.Dotenv); err != nil {
		b.err = fmt.Errorf("failed to load dotenv files: %w", err)

		return b
	}
	if cfg.Dotenv.Enabled {
		b.WithProtocolResolver(NewDotenvResolver())
	}

	if cfg.Vault != nil {
		r, err := newVaultResolver(cfg.Vault)
		if err != nil {
			b.err = err

			return b
		}
		b.WithProtocolResolver(r)
	}

	return b
}

func newVaultResolver(c *VaultConfig) (*vault.Resolver, error) {
	opts := []vault.Option{vault.WithAddress(c.Address)}
	if c.Namespace != "" {
		opts = append(opts, vault.WithNamespace(c.Namespace))
	}

	switch {
	case c.Token != "":
		opts = append(opts, vault.WithToken(c.Token))
	case c.RoleID != "":
		opts = append(opts, vault.WithAppRole(c.RoleID, c.SecretID))
	case c.KubernetesRole != "":
		opts = append(opts, vault.WithKubernetesAuth(c.KubernetesRole, c.JWTPath))
	}

	return vault.NewResolver(opts...)
}

// loadDotenvFiles loads the configured dotenv files into the process environment.
// Missing files are silently ignored to support optional .env.local patterns.
func loadDotenvFiles(c DotenvConfig) error {
	var files []string
	for _, f := range c.Files {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}

	if len(files) == 0 {
		return nil
	}

	if c.Override {
		return godotenv.Overload(files...)
	}

	return godotenv.Load(files...)
}
