package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/config"
)

// ErrInvalidToken indicates the bearer token was rejected by the provider
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated caller as reported by the auth provider
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Verifier resolves a bearer token to an identity
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// HTTPVerifier validates tokens against the auth provider's user endpoint
type HTTPVerifier struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *zap.Logger
}

// Ensure HTTPVerifier implements Verifier
var _ Verifier = (*HTTPVerifier)(nil)

// NewHTTPVerifier creates a new token verifier
func NewHTTPVerifier(cfg config.AuthConfig, logger *zap.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		endpoint:   cfg.UserEndpoint,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// Verify resolves a bearer token to the caller's identity
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}

	if identity.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &identity, nil
}
