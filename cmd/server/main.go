// Package main is the Lambda entrypoint for the signed-commits GitHub App.
// API Gateway requests are adapted to net/http and served by the webhook handler.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/mikelady/automebot/internal/clients"
	"github.com/mikelady/automebot/internal/config"
	"github.com/mikelady/automebot/internal/handlers"
	"github.com/mikelady/automebot/internal/logging"
)

// createRouter builds the HTTP router. Deliveries are accepted on /webhook
// and on the root path.
func createRouter(webhook http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/webhook", webhook)
	mux.Handle("/", webhook)
	return mux
}

// newWebhookHandler wires the GitHub App client into the webhook handler
func newWebhookHandler(cfg *config.Config, logger *slog.Logger) (*handlers.WebhookHandler, error) {
	app, err := clients.NewGitHubAppClient(cfg.AppID, cfg.PrivateKeyPEM, cfg.GitHubAPIURL)
	if err != nil {
		return nil, err
	}
	factory := handlers.AppClientFactory{App: app}
	return handlers.NewWebhookHandler(cfg.WebhookSecret, factory).WithLogger(logger), nil
}

func main() {
	ctx := context.Background()

	bootLogger := logging.New(os.Getenv("LOG_LEVEL"), os.Stderr)

	// Fail fast at cold start
	cfg, err := config.Load(ctx)
	if err != nil {
		bootLogger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, os.Stderr)
	logger.Debug("loading app")

	webhook, err := newWebhookHandler(cfg, logger)
	if err != nil {
		logger.Error("failed to create GitHub App client", "error", err)
		os.Exit(1)
	}

	logger.Debug("app loaded, starting webhook")
	lambda.Start(httpadapter.New(createRouter(webhook)).ProxyWithContext)
}
