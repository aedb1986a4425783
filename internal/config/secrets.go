package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultSecretsDir = "/run/secrets"

// ReadSecret reads a secret value from SECRETS_DIR/<name> (docker secrets
// layout). When no secret file exists, the upper-cased name is tried as an
// environment variable so local development works without mounted secrets.
func ReadSecret(name string) (string, error) {
	dir := os.Getenv("SECRETS_DIR")
	if dir == "" {
		dir = defaultSecretsDir
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read secret %s: %w", name, err)
	}

	if value := os.Getenv(strings.ToUpper(name)); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret %s not found in %s or environment", name, dir)
}
