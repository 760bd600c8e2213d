package attachment

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abduss/taskhub/internal/apperr"
)

// RegisterRoutes mounts attachment operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/attachments", handler.createAttachment)
	group.GET("/attachments", handler.listAttachments)
	group.GET("/attachments/:attachmentID", handler.getAttachment)
	group.PATCH("/attachments/:attachmentID", handler.updateAttachment)
	group.DELETE("/attachments/:attachmentID", handler.deleteAttachment)
}

type httpHandler struct {
	service *Service
}

type updateRequest struct {
	TaskID       *uuid.UUID `json:"task_id"`
	ProjectID    *uuid.UUID `json:"project_id"`
	ClearTask    bool       `json:"clear_task"`
	ClearProject bool       `json:"clear_project"`

	// Present only to reject attempts to change immutable fields.
	StoragePath *string `json:"storage_path"`
	FileName    *string `json:"file_name"`
	MimeType    *string `json:"mime_type"`
	SizeBytes   *int64  `json:"size_bytes"`
}

func (h *httpHandler) createAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, apperr.Validation("invalid attachment", apperr.FieldError{Field: "file", Error: "is required"}))
		return
	}

	var fields []apperr.FieldError
	creatorID, err := uuid.Parse(strings.TrimSpace(c.PostForm("creator_id")))
	if err != nil {
		fields = append(fields, apperr.FieldError{Field: "creator_id", Error: "must be a valid uuid"})
	}
	taskID, ok := optionalUUID(c.PostForm("task_id"))
	if !ok {
		fields = append(fields, apperr.FieldError{Field: "task_id", Error: "must be a valid uuid"})
	}
	projectID, ok := optionalUUID(c.PostForm("project_id"))
	if !ok {
		fields = append(fields, apperr.FieldError{Field: "project_id", Error: "must be a valid uuid"})
	}
	if len(fields) > 0 {
		writeError(c, apperr.Validation("invalid attachment", fields...))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, apperr.Validation("invalid attachment", apperr.FieldError{Field: "file", Error: "could not be read"}))
		return
	}
	defer file.Close()

	created, err := h.service.Create(c.Request.Context(), CreateInput{
		Content:   file,
		FileName:  fileHeader.Filename,
		MimeType:  detectContentType(fileHeader),
		SizeBytes: fileHeader.Size,
		CreatorID: creatorID,
		TaskID:    taskID,
		ProjectID: projectID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) listAttachments(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		writeError(c, apperr.Validation("invalid query", apperr.FieldError{Field: "page", Error: "must be an integer"}))
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, apperr.Validation("invalid query", apperr.FieldError{Field: "limit", Error: "must be an integer"}))
		return
	}
	inc, ok := parseIncludeQuery(c)
	if !ok {
		return
	}

	result, err := h.service.FindAll(c.Request.Context(), page, limit, inc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) getAttachment(c *gin.Context) {
	id, ok := attachmentID(c)
	if !ok {
		return
	}
	inc, ok := parseIncludeQuery(c)
	if !ok {
		return
	}

	a, err := h.service.FindByID(c.Request.Context(), id, inc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *httpHandler) updateAttachment(c *gin.Context) {
	id, ok := attachmentID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("invalid request body"))
		return
	}

	var fields []apperr.FieldError
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"storage_path", req.StoragePath != nil},
		{"file_name", req.FileName != nil},
		{"mime_type", req.MimeType != nil},
		{"size_bytes", req.SizeBytes != nil},
	} {
		if f.set {
			fields = append(fields, apperr.FieldError{Field: f.name, Error: "is immutable"})
		}
	}
	if len(fields) > 0 {
		writeError(c, apperr.Validation("invalid attachment update", fields...))
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, UpdateInput{
		TaskID:       req.TaskID,
		ProjectID:    req.ProjectID,
		ClearTask:    req.ClearTask,
		ClearProject: req.ClearProject,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) deleteAttachment(c *gin.Context) {
	id, ok := attachmentID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(e.Status, gin.H{"error": e})
}

func attachmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("attachmentID"))
	if err != nil {
		writeError(c, apperr.Validation("invalid attachment id"))
		return uuid.Nil, false
	}
	return id, true
}

func parseIncludeQuery(c *gin.Context) (Include, bool) {
	inc, err := ParseInclude(c.Query("include"))
	if err != nil {
		writeError(c, apperr.Validation("invalid query", apperr.FieldError{Field: "include", Error: err.Error()}))
		return Include{}, false
	}
	return inc, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

func optionalUUID(raw string) (*uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if fileHeader == nil {
		return fallbackMimeType
	}
	if contentType := fileHeader.Header.Get("Content-Type"); contentType != "" {
		return contentType
	}
	return fallbackMimeType
}
