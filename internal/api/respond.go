package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/preschool-cms-api/internal/service"
	"github.com/rs/zerolog"
)

// respond writes a command result. okStatus is used on success.
func respond[T any](c *gin.Context, log zerolog.Logger, res service.Result[T], okStatus int) {
	switch res.Kind {
	case service.KindOK:
		c.JSON(okStatus, gin.H{"data": res.Record})
	case service.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": res.Errors,
		})
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case service.KindNotConfirmed:
		c.JSON(http.StatusPreconditionRequired, gin.H{
			"error": "Deletion must be confirmed with confirm=true",
		})
	default:
		log.Error().Err(res.Err).Str("path", c.FullPath()).Msg("Document store request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Document store unavailable, please try again"})
	}
}

// respondList writes a projection together with its loading flag
func respondList[T any](c *gin.Context, records []T, loading bool) {
	c.JSON(http.StatusOK, gin.H{
		"data":    records,
		"loading": loading,
	})
}

// confirmed reads the confirm query flag of delete requests
func confirmed(c *gin.Context) bool {
	ok, err := strconv.ParseBool(c.Query("confirm"))
	return err == nil && ok
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
