package idempotency

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(guard *Guard, release bool, status *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ask", Middleware(guard, release), func(c *gin.Context) {
		c.Status(*status)
	})
	return r
}

func post(r *gin.Engine, token string) int {
	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	if token != "" {
		req.Header.Set(HeaderName, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestMiddlewareRejectsReplay(t *testing.T) {
	status := http.StatusOK
	r := newRouter(NewGuard(NewMemoryRepo()), false, &status)

	if code := post(r, "abc"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := post(r, "abc"); code != http.StatusConflict {
		t.Fatalf("expected 409 on replay, got %d", code)
	}
	if code := post(r, ""); code != http.StatusOK {
		t.Fatalf("expected requests without a key to pass, got %d", code)
	}
}

func TestMiddlewareKeepsRecordOnFailureByDefault(t *testing.T) {
	status := http.StatusBadGateway
	r := newRouter(NewGuard(NewMemoryRepo()), false, &status)

	if code := post(r, "abc"); code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", code)
	}
	status = http.StatusOK
	if code := post(r, "abc"); code != http.StatusConflict {
		t.Fatalf("failed request must still burn its token, got %d", code)
	}
}

func TestMiddlewareReleasesOnServerError(t *testing.T) {
	status := http.StatusInternalServerError
	r := newRouter(NewGuard(NewMemoryRepo()), true, &status)

	if code := post(r, "abc"); code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	status = http.StatusOK
	if code := post(r, "abc"); code != http.StatusOK {
		t.Fatalf("expected retry admitted after release, got %d", code)
	}

	status = http.StatusBadRequest
	if code := post(r, "client-error"); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if code := post(r, "client-error"); code != http.StatusConflict {
		t.Fatalf("client errors keep the record, got %d", code)
	}
}
