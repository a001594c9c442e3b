package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/config"
)

func newTestVerifier(endpoint string) *HTTPVerifier {
	return NewHTTPVerifier(config.AuthConfig{
		UserEndpoint:   endpoint,
		APIKey:         "anon-key",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestVerify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Error("expected the api key forwarded")
		}
		w.Write([]byte(`{"id":"user-alice","email":"alice@example.com"}`))
	}))
	defer server.Close()

	identity, err := newTestVerifier(server.URL).Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if identity.UserID != "user-alice" {
		t.Errorf("expected user-alice, got %s", identity.UserID)
	}
}

func TestVerify_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestVerifier(server.URL).Verify(context.Background(), "expired")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestVerifier(server.URL).Verify(context.Background(), "token")
	if err == nil {
		t.Fatal("expected error for a provider outage")
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Error("expected an outage to be distinguishable from a bad token")
	}
}

func TestVerify_MissingUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"ghost@example.com"}`))
	}))
	defer server.Close()

	_, err := newTestVerifier(server.URL).Verify(context.Background(), "token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for a response without an id, got %v", err)
	}
}
