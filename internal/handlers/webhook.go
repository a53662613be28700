// Package handlers provides the HTTP webhook endpoint for the GitHub App.
// It validates deliveries, matches events and dispatches the signed-commits check.
package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mikelady/automebot/internal/checks"
	"github.com/mikelady/automebot/internal/clients"
	"github.com/mikelady/automebot/internal/policy"
)

// InstallationAPI is what the check needs from an installation-scoped client
type InstallationAPI interface {
	checks.GitHubAPI
	GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// ClientFactory creates API clients authenticated as an installation
type ClientFactory interface {
	ForInstallation(ctx context.Context, installationID int64) (InstallationAPI, error)
}

// AppClientFactory builds installation clients from GitHub App credentials
type AppClientFactory struct {
	App *clients.GitHubAppClient
}

// ForInstallation implements ClientFactory
func (f AppClientFactory) ForInstallation(ctx context.Context, installationID int64) (InstallationAPI, error) {
	c, err := f.App.InstallationClient(ctx, installationID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// PullRequestPayload is the part of a pull_request delivery the check reads
type PullRequestPayload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		Head struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	Installation struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}

// WebhookResponse is the JSON response for webhook requests
type WebhookResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Conclusion string `json:"conclusion,omitempty"`
}

// ErrorResponse is returned for rejected or failed deliveries
type ErrorResponse struct {
	Error string `json:"error"`
}

// WebhookHandler handles GitHub App webhook deliveries
type WebhookHandler struct {
	secret   string
	factory  ClientFactory
	settings checks.Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewWebhookHandler creates a new webhook handler with the given secret
func NewWebhookHandler(secret string, factory ClientFactory) *WebhookHandler {
	return &WebhookHandler{
		secret:   secret,
		factory:  factory,
		settings: checks.DefaultSettings(),
		now:      time.Now,
	}
}

// WithLogger sets the logger
func (h *WebhookHandler) WithLogger(logger *slog.Logger) *WebhookHandler {
	h.logger = logger
	return h
}

// WithClock overrides the clock used for check run timestamps
func (h *WebhookHandler) WithClock(now func() time.Time) *WebhookHandler {
	h.now = now
	return h
}

func (h *WebhookHandler) log() *slog.Logger {
	if h.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.logger
}

// ServeHTTP implements http.Handler
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startedAt := h.now().UTC()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Hub-Signature-256")
	if signature == "" {
		h.writeError(w, http.StatusUnauthorized, "missing signature")
		return
	}
	if !h.validateSignature(body, signature) {
		h.log().Warn("rejected delivery with invalid signature", "delivery_id", r.Header.Get("X-GitHub-Delivery"))
		h.writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	eventName := r.Header.Get("X-GitHub-Event")
	switch checks.ParseEventKind(eventName) {
	case checks.EventPing:
		h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", Message: "pong"})
	case checks.EventPullRequest:
		h.handlePullRequest(r.Context(), w, r.Header.Get("X-GitHub-Delivery"), eventName, body, startedAt)
	case checks.EventUnknown:
		h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", Message: "event acknowledged"})
	}
}

func (h *WebhookHandler) handlePullRequest(ctx context.Context, w http.ResponseWriter, deliveryID, eventName string, body []byte, startedAt time.Time) {
	var payload PullRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !checks.Matches(eventName, payload.Action) {
		h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", Message: "action acknowledged"})
		return
	}

	ev, err := eventFromPayload(deliveryID, payload)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := h.log().With(
		"event", eventName,
		"action", payload.Action,
		"repo", ev.FullName(),
		"pr", ev.Number,
		"delivery_id", deliveryID,
	)

	report, err := h.runCheck(ctx, log, ev, startedAt)
	if err != nil {
		log.Error("signed commits check failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to run check")
		return
	}

	h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", Message: report.Title, Conclusion: report.Conclusion})
}

func (h *WebhookHandler) runCheck(ctx context.Context, log *slog.Logger, ev checks.PullRequestEvent, startedAt time.Time) (*checks.Report, error) {
	api, err := h.factory.ForInstallation(ctx, ev.InstallationID)
	if err != nil {
		return nil, err
	}

	// Always the default branch: the pull request's own branch is controlled by its author
	cfg, err := policy.Load(ctx, policyFetcher{api}, ev.Owner, ev.Repo, policy.DefaultBranch)
	if err != nil {
		// An unreadable policy only removes exemptions
		log.Warn("failed to load policy, continuing without exemptions", "error", err)
		cfg = &policy.Config{}
	}

	return checks.NewRunner(api).
		WithSettings(h.settings).
		WithLogger(log).
		WithClock(func() time.Time { return h.now().UTC() }).
		Run(ctx, ev, cfg, startedAt)
}

func eventFromPayload(deliveryID string, p PullRequestPayload) (checks.PullRequestEvent, error) {
	ev := checks.PullRequestEvent{
		DeliveryID:     deliveryID,
		InstallationID: p.Installation.ID,
		Owner:          p.Repository.Owner.Login,
		Repo:           p.Repository.Name,
		Number:         p.Number,
		HeadSHA:        p.PullRequest.Head.SHA,
	}

	// full_name is authoritative when owner or name are missing
	if (ev.Owner == "" || ev.Repo == "") && strings.Count(p.Repository.FullName, "/") == 1 {
		ev.Owner, ev.Repo, _ = strings.Cut(p.Repository.FullName, "/")
	}

	switch {
	case ev.InstallationID == 0:
		return ev, errors.New("missing installation")
	case ev.Owner == "" || ev.Repo == "":
		return ev, errors.New("missing repository")
	case ev.Number == 0:
		return ev, errors.New("missing pull request number")
	case ev.HeadSHA == "":
		return ev, errors.New("missing head sha")
	}
	return ev, nil
}

// policyFetcher reports a missing policy file the way the policy package expects
type policyFetcher struct {
	api InstallationAPI
}

func (f policyFetcher) GetFileContent(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	data, err := f.api.GetFileContent(ctx, owner, repo, path, ref)
	if errors.Is(err, clients.ErrGitHubNotFound) {
		return nil, policy.ErrFileNotFound
	}
	return data, err
}

// validateSignature verifies the HMAC signature from GitHub
func (h *WebhookHandler) validateSignature(payload []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}

func (h *WebhookHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
