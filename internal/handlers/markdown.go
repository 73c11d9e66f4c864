package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nboard/nboard-api/internal/apierrors"
	"github.com/nboard/nboard-api/internal/services"
)

// MarkdownHandler serves the read-only external Markdown document.
type MarkdownHandler struct {
	markdownService *services.MarkdownService
	log             zerolog.Logger
}

// NewMarkdownHandler creates a new MarkdownHandler.
func NewMarkdownHandler(markdownService *services.MarkdownService, log zerolog.Logger) *MarkdownHandler {
	return &MarkdownHandler{
		markdownService: markdownService,
		log:             log,
	}
}

// GetMarkdown fetches the document behind ?url= and returns its raw
// content. With ?render=html the response also carries a GFM-rendered
// HTML version.
func (h *MarkdownHandler) GetMarkdown(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		apierrors.BadRequest(c, "URL parameter is required")
		return
	}

	content, err := h.markdownService.Fetch(c.Request.Context(), url)
	if err != nil {
		h.log.Error().Err(err).Str("url", url).Msg("markdown fetch failed")
		apierrors.InternalError(c, "Failed to fetch markdown content")
		return
	}

	if c.Query("render") == "html" {
		html, err := h.markdownService.RenderHTML(content)
		if err != nil {
			h.log.Error().Err(err).Msg("markdown render failed")
			apierrors.InternalError(c, "Failed to render markdown content")
			return
		}
		c.JSON(http.StatusOK, gin.H{"content": content, "html": html})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}
