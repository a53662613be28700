package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func pingBody(zen string) []byte {
	data, _ := json.Marshal(map[string]any{"zen": zen, "hook_id": 1})
	return data
}

// deliver sends a ping through a fresh handler and returns the status code.
// An empty signature omits the header.
func deliver(secret string, body []byte, signature string) int {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "ping")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rr := httptest.NewRecorder()
	NewWebhookHandler(secret, &mockFactory{}).ServeHTTP(rr, req)
	return rr.Code
}

func TestPropertyWebhookSignature(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 64

	properties := gopter.NewProperties(parameters)

	secrets := gen.AlphaString().SuchThat(func(s string) bool { return s != "" })

	properties.Property("body signed with the webhook secret is accepted", prop.ForAll(
		func(zen, secret string) bool {
			body := pingBody(zen)
			return deliver(secret, body, sign(body, secret)) == http.StatusOK
		},
		gen.AnyString(),
		secrets,
	))

	properties.Property("body altered after signing is rejected", prop.ForAll(
		func(zen, extra, secret string) bool {
			body := pingBody(zen)
			tampered := pingBody(zen + extra)
			return deliver(secret, tampered, sign(body, secret)) == http.StatusUnauthorized
		},
		gen.AnyString(),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		secrets,
	))

	properties.Property("signature made with another secret is rejected", prop.ForAll(
		func(zen, secret, other string) bool {
			if secret == other {
				return true
			}
			body := pingBody(zen)
			return deliver(secret, body, sign(body, other)) == http.StatusUnauthorized
		},
		gen.AnyString(),
		secrets,
		secrets,
	))

	properties.Property("missing signature is rejected", prop.ForAll(
		func(zen, secret string) bool {
			return deliver(secret, pingBody(zen), "") == http.StatusUnauthorized
		},
		gen.AnyString(),
		secrets,
	))

	properties.TestingRun(t)
}
