// Package vault provides a HashiCorp Vault protocol resolver for resio.
//
// This package implements [resio.ProtocolResolver] for the vault: scheme.
// Resolution only parses the location; the secret is fetched when the
// returned resource is opened. It supports multiple authentication methods
// including Token, Kubernetes, and AppRole.
//
// Basic usage:
//
//	resolver, err := vault.NewResolver(
//	    vault.WithAddress("https://vault.example.com:8200"),
//	    vault.WithToken(os.Getenv("VAULT_TOKEN")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	loader, _ := resio.New().
//	    WithProtocolResolver(resolver).
//	    Build()
//
// # Location Format
//
//	vault:///<mount>/<path>#<field>
//
// Examples:
//   - vault:///secret/data/myapp#password (KV v2)
//   - vault:///kv/myapp#api_key (KV v1)
//   - vault:///database/creds/readonly#username (Dynamic secrets)
package vault

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/arloliu/resio/internal/types"
	vaultapi "github.com/hashicorp/vault/api"
	"github.com/spf13/afero"
)

// Resolver implements resio.ProtocolResolver for HashiCorp Vault.
// It is safe for concurrent use.
type Resolver struct {
	client    *vaultapi.Client
	config    *resolverConfig
	namespace string

	authMu   sync.Mutex
	authDone bool
}

// resolverConfig holds internal configuration for the resolver.
type resolverConfig struct {
	address    string
	token      string
	namespace  string
	authMethod authMethod
	tlsConfig  *vaultapi.TLSConfig
	fs         afero.Fs // used to read the Kubernetes service account token
}

// authMethod represents a Vault authentication method.
type authMethod interface {
	// Login performs authentication and returns a token.
	Login(ctx context.Context, client *vaultapi.Client, fs afero.Fs) (string, error)
}

// NewResolver creates a new Vault resolver with the given options.
//
// At minimum, you must provide an address and an authentication method:
//
//	resolver, err := vault.NewResolver(
//	    vault.WithAddress("https://vault.example.com:8200"),
//	    vault.WithToken(os.Getenv("VAULT_TOKEN")),
//	)
//
// Available options:
//   - [WithAddress] - Vault server address (required)
//   - [WithToken] - Token authentication
//   - [WithKubernetesAuth] - Kubernetes authentication
//   - [WithAppRole] - AppRole authentication
//   - [WithNamespace] - Vault namespace (Enterprise)
//   - [WithTLSConfig] - Custom TLS configuration
func NewResolver(opts ...Option) (*Resolver, error) {
	cfg := &resolverConfig{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.address == "" {
		return nil, errors.New("vault address is required: use WithAddress()")
	}

	vaultCfg := vaultapi.DefaultConfig()
	vaultCfg.Address = cfg.address

	if cfg.tlsConfig != nil {
		if err := vaultCfg.ConfigureTLS(cfg.tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vaultapi.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	// Set namespace if provided (Enterprise feature)
	if cfg.namespace != "" {
		client.SetNamespace(cfg.namespace)
	}

	if cfg.token != "" {
		client.SetToken(cfg.token)
	}

	return &Resolver{
		client:    client,
		config:    cfg,
		namespace: cfg.namespace,
	}, nil
}

// Resolve parses a vault: location into a secret resource.
// Locations of other schemes are not claimed; a vault: location without
// a path or field is a resolution failure.
func (r *Resolver) Resolve(_ context.Context, location string, _ types.ResourceLoader) (types.Resource, bool, error) {
	if !strings.HasPrefix(location, "vault:") {
		return nil, false, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, false, fmt.Errorf("invalid vault location %q: %w", location, err)
	}

	// vault:///secret/data/myapp#password
	// Path: /secret/data/myapp, Fragment: password
	path := strings.Trim(u.Host+u.Path, "/")
	if u.Opaque != "" {
		path = strings.Trim(u.Opaque, "/")
	}
	field := u.Fragment

	if path == "" {
		return nil, false, fmt.Errorf("vault location missing path: %s", location)
	}
	if field == "" {
		return nil, false, fmt.Errorf("vault location missing field (fragment): %s", location)
	}

	return &secretResource{resolver: r, path: path, field: field}, true, nil
}

// readField reads a single field of the secret at path.
func (r *Resolver) readField(ctx context.Context, path, field string) (string, error) {
	if err := r.ensureAuthenticated(ctx); err != nil {
		return "", fmt.Errorf("vault authentication failed: %w", err)
	}

	// Check context before making request
	if err := ctx.Err(); err != nil {
		return "", err
	}

	secret, err := r.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read vault secret at %q: %w", path, err)
	}

	if secret == nil {
		return "", fmt.Errorf("vault secret not found at %q: %w", path, os.ErrNotExist)
	}

	return r.extractField(secret.Data, field, path)
}

// ensureAuthenticated performs lazy authentication if an auth method is configured.
func (r *Resolver) ensureAuthenticated(ctx context.Context) error {
	if r.config.token != "" {
		return nil
	}

	r.authMu.Lock()
	defer r.authMu.Unlock()

	if r.authDone {
		return nil
	}

	if r.config.authMethod == nil {
		return errors.New("no authentication method configured: use WithToken(), WithKubernetesAuth(), or WithAppRole()")
	}

	token, err := r.config.authMethod.Login(ctx, r.client, r.config.fs)
	if err != nil {
		return err
	}

	r.client.SetToken(token)
	r.authDone = true

	return nil
}

// extractField extracts a field value from Vault secret data.
// It handles both KV v1 (flat) and KV v2 (nested under "data") formats.
func (r *Resolver) extractField(data map[string]any, field, path string) (string, error) {
	if nestedData, ok := data["data"].(map[string]any); ok {
		if value, ok := nestedData[field]; ok {
			return r.valueToString(value, field, path)
		}
	}

	if value, ok := data[field]; ok {
		return r.valueToString(value, field, path)
	}

	return "", fmt.Errorf("field %q not found in vault secret at %q: %w", field, path, os.ErrNotExist)
}

// valueToString converts a secret field value to a string.
func (r *Resolver) valueToString(value any, field, path string) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("vault field %q at %q is not a string (got %T)", field, path, value)
	}
}

// Client returns the underlying Vault API client for advanced usage.
func (r *Resolver) Client() *vaultapi.Client {
	return r.client
}
