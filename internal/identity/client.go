// Package identity calls the external mini-app identity provider to verify
// platform tokens.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/temaribet/lms/pkg/errors"
	"github.com/temaribet/lms/pkg/httpclient"
)

// profileResponse is the subset of the provider's profile payload we care
// about. Only the phone number matters; everything else is ignored.
type profileResponse struct {
	PhoneNumber string `json:"phone_number"`
}

// Client verifies external platform tokens against the identity provider's
// profile endpoint. A token is accepted only when the provider returns 200
// with a non-empty phone number; every other response is a rejection.
//
// Requests are never retried. A rejected token must surface within one
// round trip so the request gate can fall through to the login page, and a
// slow provider must not stall page loads. The circuit breaker only guards
// against a provider that is down, it does not re-send requests.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an identity client for the given provider base URL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = timeout
	cfg.MaxRetries = 0

	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("identity-provider"),
		logger,
	)

	return &Client{
		http:    cb,
		baseURL: baseURL,
		logger:  logger,
	}
}

// ResolvePhone exchanges an external token for the verified phone number it
// belongs to. It returns an unauthorized error when the provider does not
// vouch for the token and an unavailable error when the provider cannot be
// reached at all; callers treat the two differently.
func (c *Client) ResolvePhone(ctx context.Context, token string) (string, error) {
	url := c.baseURL + "/api/v1/profile"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			c.logger.Warn("identity provider circuit open, skipping verification")
			return "", apperrors.Unavailable("identity provider unavailable")
		}
		c.logger.Warn("identity provider unreachable", slog.String("error", err.Error()))
		return "", apperrors.Unavailable("identity provider unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Info("identity provider rejected token", slog.Int("status", resp.StatusCode))
		return "", apperrors.Unauthorized("external token rejected")
	}

	var profile profileResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&profile); err != nil {
		c.logger.Info("identity provider returned malformed profile", slog.String("error", err.Error()))
		return "", apperrors.Unauthorized("external token rejected")
	}

	if profile.PhoneNumber == "" {
		c.logger.Info("identity provider profile has no phone number")
		return "", apperrors.Unauthorized("external token rejected")
	}

	return profile.PhoneNumber, nil
}
