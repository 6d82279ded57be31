package query

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa-backend/internal/idempotency"
	"docqa-backend/internal/shared/server/middleware"
)

func newAskRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetOwnerID(c, "owner-1")
		c.Next()
	})
	guard := idempotency.NewGuard(idempotency.NewMemoryRepo())
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"), idempotency.Middleware(guard, false))
	return r
}

func postAsk(r *gin.Engine, body string, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(idempotency.HeaderName, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAskHandlerMissThenHit(t *testing.T) {
	f := newFixture(t, "Blue [Page 1] [Page 1].")
	r := newAskRouter(f)

	w := postAsk(r, `{"documentId":"doc-1","question":"colour?"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.False(t, first.Cached)
	assert.Equal(t, []string{"[Page 1]"}, first.Sources)

	w = postAsk(r, `{"documentId":"doc-1","question":"colour?"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var second AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Cached)
	assert.True(t, first.CachedUntil.Equal(second.CachedUntil))
}

func TestAskHandlerValidation(t *testing.T) {
	f := newFixture(t, "x")
	r := newAskRouter(f)

	for _, body := range []string{
		`{"question":"q"}`,
		`{"documentId":"doc-1"}`,
		`{"documentId":"doc-1","question":"q","k":11}`,
		`not json`,
	} {
		w := postAsk(r, body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := postAsk(r, `{"documentId":"doc-pending","question":"q"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "DOCUMENT_NOT_PROCESSED")
}

func TestAskHandlerIdempotencyReplay(t *testing.T) {
	f := newFixture(t, "x")
	r := newAskRouter(f)

	w := postAsk(r, `{"documentId":"doc-1","question":"q"}`, "key-1")
	require.Equal(t, http.StatusOK, w.Code)

	w = postAsk(r, `{"documentId":"doc-1","question":"q"}`, "key-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_KEY_EXISTS")
}
