package vault

import (
	vaultapi "github.com/hashicorp/vault/api"
	"github.com/spf13/afero"
)

// Option configures a Vault resolver.
type Option func(*resolverConfig)

// WithAddress sets the Vault server address. Required.
//
//	vault.WithAddress("https://vault.example.com:8200")
func WithAddress(addr string) Option {
	return func(c *resolverConfig) {
		c.address = addr
	}
}

// WithToken authenticates with a static token, typically injected
// through the environment:
//
//	vault.WithToken(os.Getenv("VAULT_TOKEN"))
func WithToken(token string) Option {
	return func(c *resolverConfig) {
		c.token = token
	}
}

// WithNamespace sets the Vault Enterprise namespace.
func WithNamespace(ns string) Option {
	return func(c *resolverConfig) {
		c.namespace = ns
	}
}

// WithTLSConfig sets custom TLS configuration for the Vault client.
//
//	vault.WithTLSConfig(&api.TLSConfig{CACert: "/path/to/ca.crt"})
func WithTLSConfig(cfg *vaultapi.TLSConfig) Option {
	return func(c *resolverConfig) {
		c.tlsConfig = cfg
	}
}

// WithFilesystem sets the filesystem used to read credentials from disk,
// such as the Kubernetes service account token. Defaults to the OS filesystem.
func WithFilesystem(fs afero.Fs) Option {
	return func(c *resolverConfig) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// WithKubernetesAuth logs in through the "kubernetes" auth mount using the
// service account token at jwtPath (usually
// /var/run/secrets/kubernetes.io/serviceaccount/token).
func WithKubernetesAuth(role, jwtPath string) Option {
	return WithKubernetesAuthMount("", role, jwtPath)
}

// WithKubernetesAuthMount is WithKubernetesAuth for a non-default mount path.
func WithKubernetesAuthMount(mount, role, jwtPath string) Option {
	return func(c *resolverConfig) {
		c.authMethod = &kubernetesAuth{mount: mount, role: role, jwtPath: jwtPath}
	}
}

// WithAppRole logs in through the "approle" auth mount, for
// machine-to-machine authentication:
//
//	vault.WithAppRole(os.Getenv("VAULT_ROLE_ID"), os.Getenv("VAULT_SECRET_ID"))
func WithAppRole(roleID, secretID string) Option {
	return WithAppRoleMount("", roleID, secretID)
}

// WithAppRoleMount is WithAppRole for a non-default mount path.
func WithAppRoleMount(mount, roleID, secretID string) Option {
	return func(c *resolverConfig) {
		c.authMethod = &appRoleAuth{mount: mount, roleID: roleID, secretID: secretID}
	}
}
