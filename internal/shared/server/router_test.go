package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/documents"
	"docqa-backend/internal/services/health"
	"docqa-backend/internal/shared/auth"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T, hs *health.Service, perMinute int) (*gin.Engine, *auth.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	verifier, err := auth.NewVerifier("test-secret", "dev")
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	docs := &documents.Service{Store: local.New(t.TempDir()), Repo: documents.NewMemoryRepo()}
	r := NewRouter(RouterDeps{
		Config:          config.Config{Env: "dev", RateLimitPerMinute: perMinute},
		Verifier:        verifier,
		Health:          hs,
		DocumentHandler: documents.NewHandler(docs),
		Limiter:         middleware.NewRateLimiter(nil),
	})
	return r, verifier
}

func TestHealthAndReadiness(t *testing.T) {
	hs := health.NewService()
	hs.Register("postgres", func(ctx context.Context) error { return errors.New("down") })
	r, _ := newTestRouter(t, hs, 60)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"postgres":"down"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestOwnedRoutesRequireIdentity(t *testing.T) {
	r, verifier := newTestRouter(t, nil, 60)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	token, err := verifier.Sign("owner-1", "o@example.com", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ownerId":"owner-1"`) {
		t.Fatalf("unexpected /me response %d %s", w.Code, w.Body.String())
	}
}

func TestSharedRouteIsPublic(t *testing.T) {
	r, _ := newTestRouter(t, nil, 60)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/shared/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token without auth, got %d", w.Code)
	}
}

func TestRateLimitPerOwner(t *testing.T) {
	r, _ := newTestRouter(t, nil, 2)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		req.Header.Set("X-Guest-Id", "g1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		last = w.Code
		if i < 2 && w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
		if i == 2 && w.Header().Get("Retry-After") == "" {
			t.Fatalf("expected Retry-After header")
		}
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", ":9000": ":9000", "7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q want %q", in, got, want)
		}
	}
}
