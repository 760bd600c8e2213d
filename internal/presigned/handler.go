package presigned

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abduss/taskhub/internal/apperr"
)

type Handler struct {
	presignedService *Service
}

func NewHandler(ps *Service) *Handler {
	return &Handler{presignedService: ps}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/attachments/:attachmentID/download-url", h.GenerateDownloadURL)
}

func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("attachmentID"))
	if err != nil {
		writeError(c, apperr.Validation("invalid attachment id"))
		return
	}

	var ttl time.Duration
	if raw := c.Query("ttl"); raw != "" {
		ttl, err = time.ParseDuration(raw)
		if err != nil {
			writeError(c, apperr.Validation("invalid ttl", apperr.FieldError{Field: "ttl", Error: "must be a duration such as 15m"}))
			return
		}
	}

	link, err := h.presignedService.DownloadURL(c.Request.Context(), id, ttl)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func writeError(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(e.Status, gin.H{"error": e})
}
