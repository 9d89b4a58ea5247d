package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/service"
	"github.com/rs/zerolog"
)

const keepAliveInterval = 25 * time.Second

// StreamHandler pushes collection snapshots to browsers as server-sent events
type StreamHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(services *service.Services, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		services: services,
		log:      log.With().Str("handler", "stream").Logger(),
	}
}

// Public handles GET /stream/:collection
func (h *StreamHandler) Public(c *gin.Context) {
	h.stream(c, true)
}

// Admin handles GET /admin/stream/:collection
func (h *StreamHandler) Admin(c *gin.Context) {
	h.stream(c, false)
}

// stream holds one subscription for the lifetime of the request. Closing
// the connection cancels the request context, which ends the subscription.
func (h *StreamHandler) stream(c *gin.Context, public bool) {
	collection := c.Param("collection")
	feed, err := h.services.Feed(collection, public)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx := c.Request.Context()
	if err := feed.Start(ctx); err != nil {
		h.log.Error().Err(err).Str("collection", collection).Msg("Failed to open subscription")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Document store unavailable, please try again"})
		return
	}
	defer feed.Stop()

	changes, unsubscribe := feed.Changes()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	h.log.Debug().Str("collection", collection).Bool("public", public).Msg("Stream opened")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Str("collection", collection).Msg("Stream closed")
			return
		case <-changes:
			records, loading := feed.Current()
			c.SSEvent("snapshot", gin.H{
				"collection": collection,
				"data":       records,
				"loading":    loading,
			})
			c.Writer.Flush()
		case t := <-ticker.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}
