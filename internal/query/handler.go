package query

import (
	"time"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type askRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	Question   string `json:"question" binding:"required,max=4000"`
	K          *int   `json:"k"`
}

// AskResponse is the body returned by POST /ask.
type AskResponse struct {
	Answer      string    `json:"answer"`
	Sources     []string  `json:"sources"`
	Cached      bool      `json:"cached"`
	CachedUntil time.Time `json:"cachedUntil"`
}

// RegisterRoutes attaches query routes; mutating runs before the handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mutating ...gin.HandlerFunc) {
	rg.POST("/ask", append(append([]gin.HandlerFunc{}, mutating...), h.ask)...)
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.FromError(c, respond.BindError(err))
		return
	}
	in := AskInput{
		OwnerID:    middleware.OwnerIDFromContext(c),
		DocumentID: req.DocumentID,
		Question:   req.Question,
	}
	if req.K != nil {
		in.K = *req.K
	}
	c.Set("documentId", in.DocumentID)

	view, err := h.Svc.Ask(c.Request.Context(), in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("cached", view.Cached)

	sources := view.Sources
	if sources == nil {
		sources = []string{}
	}
	respond.OK(c, AskResponse{
		Answer:      view.Answer,
		Sources:     sources,
		Cached:      view.Cached,
		CachedUntil: view.CachedUntil,
	})
}
