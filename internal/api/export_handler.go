package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/service"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /admin/export/:collection?format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	ctx := c.Request.Context()
	collection := c.Param("collection")

	format := c.Query("format")
	if format == "" {
		format = "json"
	}

	if err := h.services.Export.Check(collection, format); err != nil {
		if errors.Is(err, service.ErrUnknownCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unsupported format",
			"formats": h.services.Export.Formats(collection),
		})
		return
	}

	h.log.Info().
		Str("collection", collection).
		Str("format", format).
		Msg("Starting streaming export")

	if err := h.services.Export.Stream(ctx, c.Writer, collection, format); err != nil {
		h.log.Error().Err(err).Str("collection", collection).Msg("Export failed")
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Document store unavailable, please try again"})
		}
		// Can't return error JSON after streaming has started
		return
	}
}
