package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/documents"
	"docqa-backend/internal/processing"
	"docqa-backend/internal/query"
	"docqa-backend/internal/services/health"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers and middleware the router mounts.
type RouterDeps struct {
	Config          config.Config
	Verifier        middleware.TokenVerifier
	Health          *health.Service
	DocumentHandler *documents.Handler
	IndexHandler    *processing.Handler
	QueryHandler    *query.Handler
	// Idempotency guards mutating routes; nil disables it.
	Idempotency gin.HandlerFunc
	Limiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		metrics.Middleware(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/healthz", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	r.GET("/readyz", func(c *gin.Context) {
		checks, ok := healthSvc.Ready(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ready": ok, "checks": checks})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterPublicRoutes(api)
	}

	perMinute := deps.Config.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	owned := api.Group("")
	owned.Use(
		middleware.Auth(deps.Verifier, deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   map[string]middleware.RateLimitRule{"DEFAULT": middleware.PerMinute(perMinute)},
			Limiter: deps.Limiter,
		}),
	)
	registerMeRoutes(owned)

	var mutating []gin.HandlerFunc
	if deps.Idempotency != nil {
		mutating = append(mutating, deps.Idempotency)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(owned, mutating...)
	}
	if deps.IndexHandler != nil {
		deps.IndexHandler.RegisterRoutes(owned, mutating...)
	}
	if deps.QueryHandler != nil {
		deps.QueryHandler.RegisterRoutes(owned, mutating...)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
