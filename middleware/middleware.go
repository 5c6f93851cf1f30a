package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/artverse/ingest/env"
)

// HandleCORS sets the CORS headers for the read API. Only the single configured
// origin is allowed, and preflight requests short-circuit with 204.
func HandleCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestOrigin := c.Request.Header.Get("Origin")

		if requestOrigin == env.GetString("CORS_ALLOWED_ORIGIN") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", requestOrigin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
