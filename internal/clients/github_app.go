package clients

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// GitHub rejects App JWTs living longer than 10 minutes
	appJWTLifetime = 10 * time.Minute
	appClockDrift  = 60 * time.Second
)

// GitHubAppClient authenticates as a GitHub App and mints installation tokens.
type GitHubAppClient struct {
	appID      int64
	privateKey *rsa.PrivateKey
	baseURL    string
	client     *http.Client
	now        func() time.Time
}

// InstallationToken is a short-lived token scoped to one installation
type InstallationToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewGitHubAppClient parses the App's PEM private key (PKCS#1 or PKCS#8).
// An empty baseURL selects DefaultBaseURL.
func NewGitHubAppClient(appID int64, privateKeyPEM []byte, baseURL string) (*GitHubAppClient, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	key, err := parseRSAKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &GitHubAppClient{
		appID:      appID,
		privateKey: key,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}, nil
}

func parseRSAKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}
	return key, nil
}

// CreateJWT signs an RS256 App JWT. The issue time is back-dated to absorb
// clock drift between us and GitHub.
func (c *GitHubAppClient) CreateJWT() (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatInt(c.appID, 10),
		IssuedAt:  jwt.NewNumericDate(now.Add(-appClockDrift)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.privateKey)
}

// CreateInstallationToken exchanges an App JWT for an installation token.
func (c *GitHubAppClient) CreateInstallationToken(ctx context.Context, installationID int64) (*InstallationToken, error) {
	appJWT, err := c.CreateJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT: %w", err)
	}

	endpoint := fmt.Sprintf("%s/app/installations/%d/access_tokens", c.baseURL, installationID)
	body, err := send(ctx, c.client, http.MethodPost, endpoint, appJWT, nil, http.StatusCreated)
	if err != nil {
		return nil, fmt.Errorf("installation %d: %w", installationID, err)
	}

	var token InstallationToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.Token == "" {
		return nil, fmt.Errorf("installation %d: %w: empty token", installationID, ErrGitHubAPIError)
	}
	return &token, nil
}

// InstallationClient returns a REST client authenticated as the given installation.
func (c *GitHubAppClient) InstallationClient(ctx context.Context, installationID int64) (*GitHubClient, error) {
	token, err := c.CreateInstallationToken(ctx, installationID)
	if err != nil {
		return nil, err
	}
	return NewGitHubClient(token.Token, c.baseURL), nil
}
