package vault

import (
	"context"
	"errors"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/spf13/afero"
)

// login writes credentials to auth/<mount>/login and returns the client token.
func login(ctx context.Context, client *vaultapi.Client, method, mount string, data map[string]any) (string, error) {
	if mount == "" {
		mount = method
	}

	secret, err := client.Logical().WriteWithContext(ctx, fmt.Sprintf("auth/%s/login", mount), data)
	if err != nil {
		return "", fmt.Errorf("%s auth failed: %w", method, err)
	}

	if secret == nil || secret.Auth == nil {
		return "", errors.New(method + " auth returned no token")
	}

	return secret.Auth.ClientToken, nil
}

// kubernetesAuth implements Kubernetes authentication method.
type kubernetesAuth struct {
	role    string
	jwtPath string
	mount   string // defaults to "kubernetes"
}

// Login authenticates using Kubernetes service account token.
func (k *kubernetesAuth) Login(ctx context.Context, client *vaultapi.Client, fs afero.Fs) (string, error) {
	jwt, err := afero.ReadFile(fs, k.jwtPath)
	if err != nil {
		return "", fmt.Errorf("failed to read kubernetes JWT from %q: %w", k.jwtPath, err)
	}

	return login(ctx, client, "kubernetes", k.mount, map[string]any{
		"role": k.role,
		"jwt":  string(jwt),
	})
}

// appRoleAuth implements AppRole authentication method.
type appRoleAuth struct {
	roleID   string
	secretID string
	mount    string // defaults to "approle"
}

// Login authenticates using AppRole credentials.
func (a *appRoleAuth) Login(ctx context.Context, client *vaultapi.Client, _ afero.Fs) (string, error) {
	return login(ctx, client, "approle", a.mount, map[string]any{
		"role_id":   a.roleID,
		"secret_id": a.secretID,
	})
}
