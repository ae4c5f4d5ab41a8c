package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Origin validation for the plain HTTP side; the websocket upgrade carries its
// own credential gate, so this stays permissive for /ws.
func Origin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
