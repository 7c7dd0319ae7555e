package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers mounted by NewRouter
type Handlers struct {
	Submissions    *SubmissionHandler
	Attachments    *AttachmentHandler
	AdminTokenHash string
}

// NewRouter builds the gin engine with the public form route and the
// token-protected admin API.
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/forms/:formID/submissions", h.Submissions.Submit)

		admin := api.Group("", RequireAdminToken(h.AdminTokenHash))
		admin.GET("/submissions", h.Submissions.ListSubmissions)
		admin.GET("/submissions/:id", h.Submissions.GetSubmission)
		admin.GET("/attachments/:id/file", h.Attachments.Download)
		admin.GET("/attachments/:id/thumbnail", h.Attachments.Thumbnail)
		admin.POST("/attachments/:id/thumbnail", h.Attachments.GenerateThumbnail)
	}

	return r
}
