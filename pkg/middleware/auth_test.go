package middleware_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/accordhq/accord/pkg/middleware"
)

type staticVerifier struct {
	claims map[string]any
	err    error
}

func (v *staticVerifier) Verify(context.Context, string) (map[string]any, error) {
	return v.claims, v.err
}

func authHandler(t *testing.T, verifier middleware.TokenVerifier) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := middleware.Claims(r.Context()); claims["sub"] != "user-1" {
			t.Errorf("claims = %v, want sub user-1", claims)
		}
		w.WriteHeader(http.StatusOK)
	})
	return middleware.Auth(verifier, logger)(next)
}

func TestAuthValidToken(t *testing.T) {
	handler := authHandler(t, &staticVerifier{claims: map[string]any{"sub": "user-1"}})

	req := httptest.NewRequest("GET", "/documents", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthRejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
	}{
		{name: "missing header", header: "", err: nil},
		{name: "malformed header", header: "Basic abc", err: nil},
		{name: "invalid token", header: "Bearer bad", err: fmt.Errorf("expired")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := authHandler(t, &staticVerifier{err: tt.err})

			req := httptest.NewRequest("GET", "/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
