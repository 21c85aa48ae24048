// Package anubis verifies bearer tokens against an external account
// service's introspection endpoint.
package anubis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Lake-Effect-Labs/leagueengine/internal/domain/user"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/logging"
	"github.com/Lake-Effect-Labs/leagueengine/internal/platform/resilience"
	"github.com/Lake-Effect-Labs/leagueengine/internal/usecase"
)

// Client implements httpapi.TokenVerifier against Anubis's introspection
// endpoint, guarded by a circuit breaker so a failing auth backend never
// wedges every incoming request.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
}

func NewClient(httpClient *http.Client, baseURL, introspectPath string, logger *logging.Logger, circuitCfg resilience.CircuitBreakerConfig) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	circuitCfg = resilience.NormalizeCircuitBreakerConfig(circuitCfg)
	var breaker *resilience.CircuitBreaker
	if circuitCfg.Enabled {
		breaker = resilience.NewCircuitBreaker(circuitCfg.FailureThreshold, circuitCfg.OpenTimeout, circuitCfg.HalfOpenMaxReq)
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(baseURL, introspectPath),
		logger:        logger,
		breaker:       breaker,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return user.Principal{}, fmt.Errorf("%w: anubis circuit open: %v", usecase.ErrDependencyUnavailable, err)
		}
	}

	principal, err := c.doVerify(ctx, token)
	if c.breaker != nil {
		if err != nil && isTransientFailure(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return principal, err
}

func (c *Client) doVerify(ctx context.Context, token string) (user.Principal, error) {
	payload := introspectRequest{Token: token}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: request introspection to anubis: %v", usecase.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("read introspect response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "anubis introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: anubis introspection failed with status %d", usecase.ErrDependencyUnavailable, resp.StatusCode)
	}

	var decoded introspectResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	return user.Principal{UserID: decoded.UserID}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}

// isTransientFailure reports whether err reflects a dependency problem the
// circuit breaker should count, rather than the token simply being invalid.
func isTransientFailure(err error) bool {
	return err != nil && !errors.Is(err, usecase.ErrUnauthorized)
}
