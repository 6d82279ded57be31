package idempotency

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
	"docqa-backend/internal/shared/telemetry"
)

// HeaderName carries the client-supplied token.
const HeaderName = "Idempotency-Key"

const releaseTimeout = 5 * time.Second

// Middleware admits the request through guard before the wrapped handler
// runs. With releaseOnFailure the record is deleted again when the handler
// responds with a server error, so the client may retry with the same token.
func Middleware(guard *Guard, releaseOnFailure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(HeaderName)
		if err := guard.Admit(c.Request.Context(), token, middleware.OwnerIDFromContext(c)); err != nil {
			respond.FromError(c, err)
			return
		}

		c.Next()

		if !releaseOnFailure || token == "" || c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), releaseTimeout)
		defer cancel()
		if err := guard.Release(ctx, token); err != nil {
			telemetry.FromContext(ctx).Warn("idempotency.release_failed", zap.Error(err))
		}
	}
}
