package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerClient interface for testing
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AppSecret is the JSON document stored in Secrets Manager
type AppSecret struct {
	AppID         AppIDType `json:"app_id"`
	PrivateKey    string    `json:"private_key"` // PEM or base64 PEM
	WebhookSecret string    `json:"webhook_secret"`
}

// AppIDType handles JSON app ids that can be either string or int
type AppIDType int64

// UnmarshalJSON handles both string and int values from JSON
func (a *AppIDType) UnmarshalJSON(data []byte) error {
	var intVal int64
	if err := json.Unmarshal(data, &intVal); err == nil {
		*a = AppIDType(intVal)
		return nil
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		intVal, err := strconv.ParseInt(strVal, 10, 64)
		if err != nil {
			return fmt.Errorf("app_id string %q is not a valid integer: %w", strVal, err)
		}
		*a = AppIDType(intVal)
		return nil
	}

	return fmt.Errorf("app_id must be a string or integer, got: %s", string(data))
}

// NewSecretsManagerClient creates a client from the default AWS configuration
func NewSecretsManagerClient(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// ApplySecret fetches c.SecretName and fills every credential that is not
// already set from the environment.
func (c *Config) ApplySecret(ctx context.Context, client SecretsManagerClient) error {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(c.SecretName),
	})
	if err != nil {
		return fmt.Errorf("failed to retrieve secret %s: %w", c.SecretName, err)
	}
	if result.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", c.SecretName)
	}

	var secret AppSecret
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return fmt.Errorf("failed to parse secret JSON: %w", err)
	}

	if c.AppID == 0 {
		c.AppID = int64(secret.AppID)
	}
	if len(c.PrivateKeyPEM) == 0 && secret.PrivateKey != "" {
		key, err := DecodePrivateKey(secret.PrivateKey)
		if err != nil {
			return fmt.Errorf("private_key: %w", err)
		}
		c.PrivateKeyPEM = key
	}
	if c.WebhookSecret == "" {
		c.WebhookSecret = secret.WebhookSecret
	}
	return nil
}
