package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/stockmrp/pkg/engine"
)

// Health reports liveness and the size of the catalog
func Health(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := e.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"storage": storageMode(e),
			"counts":  stats,
			"message": fmt.Sprintf("Found %d components, %d products and %d orders.", stats.Components, stats.Products, stats.Orders),
		})
	}
}

func storageMode(e *engine.Engine) string {
	if e.Config.DBPath != "" {
		return "sqlite"
	}
	return "memory"
}
