package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"formintake-backend/models"
	"formintake-backend/repository"
	"formintake-backend/service"
	"formintake-backend/storage"
	"formintake-backend/thumbnail"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AttachmentHandler handles HTTP requests for stored attachments
type AttachmentHandler struct {
	service  *service.SubmissionService
	storage  storage.Storage
	resolver *thumbnail.Resolver
}

// NewAttachmentHandler creates a new attachment handler
func NewAttachmentHandler(svc *service.SubmissionService, st storage.Storage, resolver *thumbnail.Resolver) *AttachmentHandler {
	return &AttachmentHandler{
		service:  svc,
		storage:  st,
		resolver: resolver,
	}
}

func (h *AttachmentHandler) loadAttachment(c *gin.Context) (*models.FileAttachment, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid attachment ID format")
		return nil, false
	}

	attachment, err := h.service.GetAttachment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Attachment not found")
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, "GET_FAILED", err.Error())
		return nil, false
	}
	return attachment, true
}

// Download handles GET /api/attachments/:id/file
func (h *AttachmentHandler) Download(c *gin.Context) {
	attachment, ok := h.loadAttachment(c)
	if !ok {
		return
	}

	reader, err := h.storage.Open(c.Request.Context(), attachment.SubmissionID.String(), attachment.StoredName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondError(c, http.StatusNotFound, "FILE_MISSING", "Stored file not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", fmt.Sprintf("Failed to open file: %v", err))
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, attachment.Size, attachment.MimeType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", attachment.StoredName),
	})
}

// GenerateThumbnail handles POST /api/attachments/:id/thumbnail
func (h *AttachmentHandler) GenerateThumbnail(c *gin.Context) {
	attachment, ok := h.loadAttachment(c)
	if !ok {
		return
	}

	generated, err := h.resolver.Generate(c.Request.Context(), attachment)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "THUMBNAIL_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"generated": generated,
			"thumbnail": h.resolver.Resolve(attachment),
		},
	})
}

// Thumbnail handles GET /api/attachments/:id/thumbnail; alt and class
// query parameters override the markup defaults.
func (h *AttachmentHandler) Thumbnail(c *gin.Context) {
	attachment, ok := h.loadAttachment(c)
	if !ok {
		return
	}

	attrs := map[string]string{}
	for _, name := range []string{"alt", "class"} {
		if value, set := c.GetQuery(name); set {
			attrs[name] = value
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"thumbnail": h.resolver.Resolve(attachment),
			"markup":    string(h.resolver.RenderMarkup(attachment, attrs)),
		},
	})
}
