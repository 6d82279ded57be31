package processing

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

type resultResponse struct {
	DocumentID string `json:"documentId"`
	Status     Status `json:"status"`
	Message    string `json:"message"`
}

// RebuildResponse is the body returned by POST /index/rebuild.
type RebuildResponse struct {
	Message   string           `json:"message"`
	Results   []resultResponse `json:"results"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
}

type recentResponse struct {
	Query      string    `json:"query"`
	DocumentID string    `json:"documentId"`
	CreatedAt  time.Time `json:"createdAt"`
	Document   struct {
		OriginalName string `json:"originalName"`
	} `json:"document"`
}

// StatsResponse is the body returned by GET /index/stats.
type StatsResponse struct {
	Documents struct {
		Total          int    `json:"total"`
		Processed      int    `json:"processed"`
		Unprocessed    int    `json:"unprocessed"`
		ProcessingRate string `json:"processingRate"`
	} `json:"documents"`
	Queries struct {
		Total  int              `json:"total"`
		Recent []recentResponse `json:"recent"`
	} `json:"queries"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// RegisterRoutes attaches index routes; mutating runs before rebuild.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mutating ...gin.HandlerFunc) {
	rg.POST("/index/rebuild", append(append([]gin.HandlerFunc{}, mutating...), h.rebuild)...)
	rg.GET("/index/stats", h.stats)
}

func (h *Handler) rebuild(c *gin.Context) {
	batch, err := h.Svc.RebuildFor(c.Request.Context(), middleware.OwnerIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	resp := RebuildResponse{
		Message:   "document processing completed",
		Results:   make([]resultResponse, 0, len(batch.Results)),
		Processed: batch.Succeeded,
		Failed:    batch.Failed,
	}
	for _, r := range batch.Results {
		resp.Results = append(resp.Results, resultResponse{DocumentID: r.DocumentID, Status: r.Status, Message: r.Detail})
	}
	respond.OK(c, resp)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), middleware.OwnerIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	var resp StatsResponse
	resp.Documents.Total = st.Total
	resp.Documents.Processed = st.Processed
	resp.Documents.Unprocessed = st.Unprocessed
	resp.Documents.ProcessingRate = st.ProcessingRate
	resp.Queries.Total = st.QueriesTotal
	resp.Queries.Recent = make([]recentResponse, 0, len(st.Recent))
	for _, q := range st.Recent {
		r := recentResponse{Query: q.Question, DocumentID: q.DocumentID, CreatedAt: q.CreatedAt}
		r.Document.OriginalName = q.DocumentName
		resp.Queries.Recent = append(resp.Queries.Recent, r)
	}
	resp.LastUpdated = st.LastUpdated
	respond.OK(c, resp)
}
