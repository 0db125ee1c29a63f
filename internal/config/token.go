package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// APIToken returns the bearer token protecting the management API, reading
// it from SCENA_API_TOKEN, then from the token file in dataDir, generating
// and persisting a fresh one if neither exists.
func APIToken(dataDir string) (string, error) {
	if t := os.Getenv("SCENA_API_TOKEN"); t != "" {
		return t, nil
	}

	path := filepath.Join(dataDir, "api-token")
	if data, err := os.ReadFile(path); err == nil {
		if t := strings.TrimSpace(string(data)); t != "" {
			return t, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	token := uuid.New().String()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing token file: %w", err)
	}
	return token, nil
}
