package documents

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/shared/apperr"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches owner-scoped document routes to the router group.
// mutating runs before the upload handler only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mutating ...gin.HandlerFunc) {
	upload := append(append([]gin.HandlerFunc{}, mutating...), h.upload)
	rg.POST("/documents", upload...)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
}

// RegisterPublicRoutes attaches routes that do not require an identity.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/shared/:token", h.shared)
}

func (h *Handler) upload(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	maxBytes := h.Svc.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.FromError(c, apperr.Validation("file is required", apperr.FieldError{Field: "file", Message: "is required"}))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.FromError(c, apperr.Validation("unable to read file"))
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		OwnerID:    ownerID,
		FileName:   fileHeader.Filename,
		Visibility: Visibility(c.PostForm("visibility")),
		Body:       file,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.Created(c, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	page, err := h.Svc.List(c.Request.Context(), ownerID, offset, limit)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toListResponse(page))
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	doc, err := h.Svc.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.OK(c, toResponse(doc))
}

func (h *Handler) shared(c *gin.Context) {
	doc, err := h.Svc.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toSharedResponse(doc))
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respond.FromError(c, apperr.Validation("invalid pagination", apperr.FieldError{Field: name, Message: "must be an integer"}))
		return 0, false
	}
	return v, true
}
