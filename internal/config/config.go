// Package config loads the app's runtime configuration from the environment
// and, optionally, AWS Secrets Manager.
package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	AppID         int64
	PrivateKeyPEM []byte
	WebhookSecret string
	LogLevel      string
	GitHubAPIURL  string
	SecretName    string
}

// FromEnv reads configuration from environment variables
func FromEnv() (*Config, error) {
	cfg := &Config{
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		GitHubAPIURL:  getEnvOrDefault("GITHUB_API_URL", "https://api.github.com"),
		SecretName:    os.Getenv("SECRET_NAME"),
	}

	if raw := os.Getenv("APP_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("APP_ID %q is not a valid integer: %w", raw, err)
		}
		cfg.AppID = id
	}

	if raw := os.Getenv("PRIVATE_KEY"); raw != "" {
		key, err := DecodePrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("PRIVATE_KEY: %w", err)
		}
		cfg.PrivateKeyPEM = key
	}

	return cfg, nil
}

// Load reads the environment and fills missing credentials from Secrets
// Manager when SECRET_NAME is set. The result is validated.
func Load(ctx context.Context) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.SecretName != "" && cfg.missingCredentials() {
		client, err := NewSecretsManagerClient(ctx)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplySecret(ctx, client); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required credentials are set
func (c *Config) Validate() error {
	if c.AppID == 0 {
		return fmt.Errorf("APP_ID is required")
	}
	if len(c.PrivateKeyPEM) == 0 {
		return fmt.Errorf("PRIVATE_KEY is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required")
	}
	return nil
}

func (c *Config) missingCredentials() bool {
	return c.AppID == 0 || len(c.PrivateKeyPEM) == 0 || c.WebhookSecret == ""
}

// DecodePrivateKey accepts a PEM key either as-is or base64 encoded
func DecodePrivateKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-----BEGIN") {
		return []byte(raw), nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	return key, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
