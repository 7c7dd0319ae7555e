package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"formintake-backend/intake"
	"formintake-backend/logger"
	"formintake-backend/models"
	"formintake-backend/repository"
	"formintake-backend/service"
	"formintake-backend/thumbnail"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const multipartMemory = 8 << 20

// SubmissionHandler handles HTTP requests for form submissions
type SubmissionHandler struct {
	service     *service.SubmissionService
	resolver    *thumbnail.Resolver
	ingest      service.IngestConfig
	maxBodySize int64
	logger      *slog.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(svc *service.SubmissionService, resolver *thumbnail.Resolver, ingest service.IngestConfig, maxBodySize int64, l *slog.Logger) *SubmissionHandler {
	if l == nil {
		l = slog.Default()
	}
	return &SubmissionHandler{
		service:     svc,
		resolver:    resolver,
		ingest:      ingest,
		maxBodySize: maxBodySize,
		logger:      l.With(slog.String("component", "submission_handler")),
	}
}

// Submit handles POST /api/forms/:formID/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	if h.maxBodySize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)
	}

	var err error
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		err = c.Request.ParseMultipartForm(multipartMemory)
	} else {
		err = c.Request.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				fmt.Sprintf("Request body exceeds maximum of %d bytes", h.maxBodySize))
			return
		}
		respondError(c, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}

	payload := service.Payload{
		FormID:  c.Param("formID"),
		Fields:  map[string][]string(c.Request.PostForm),
		Uploads: map[string][]intake.Upload{},
	}
	if c.Request.MultipartForm != nil {
		for field, headers := range c.Request.MultipartForm.File {
			for _, fh := range headers {
				payload.Uploads[field] = append(payload.Uploads[field], intake.FromFileHeader(fh))
			}
		}
	}

	ctx := logger.WithContext(c.Request.Context(), h.logger.With(slog.String("form_id", payload.FormID)))
	result, err := h.service.Ingest(ctx, payload, h.ingest)
	if err != nil {
		logger.FromContext(ctx).Error("ingest failed", slog.Any("error", err))
		respondError(c, http.StatusInternalServerError, "SUBMISSION_FAILED", "Failed to save submission")
		return
	}

	if !result.Created {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"created": false,
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"created":     true,
			"id":          result.SubmissionID,
			"title":       result.Title,
			"attachments": result.Attachments,
		},
	})
}

// ListSubmissions handles GET /api/submissions
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	submissions, err := h.service.ListSubmissions(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	if submissions == nil {
		submissions = []*models.Submission{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    submissions,
	})
}

// AttachmentView is an attachment with its resolved thumbnail
type AttachmentView struct {
	*models.FileAttachment
	Thumbnail       string `json:"thumbnail"`
	ThumbnailMarkup string `json:"thumbnail_markup"`
}

// GetSubmission handles GET /api/submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid submission ID format")
		return
	}

	view, err := h.service.GetSubmission(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Submission not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "GET_FAILED", err.Error())
		return
	}

	attachments := make([]AttachmentView, 0, len(view.Attachments))
	for _, a := range view.Attachments {
		attachments = append(attachments, AttachmentView{
			FileAttachment:  a,
			Thumbnail:       h.resolver.Resolve(a),
			ThumbnailMarkup: string(h.resolver.RenderMarkup(a, nil)),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"submission":   view.Submission,
			"submitted_at": view.SubmittedAt,
			"attachments":  attachments,
		},
	})
}
