package middleware

import (
	"net/http"

	"CityTalk/service/gateway"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the gateway's tiny HTTP surface. Everything else the
// platform serves (profiles, reviews, posts) lives in its own services; the
// gateway is reached through /ws only.
func RegisterRoutes(r *gin.Engine, srv *gateway.Server) {
	r.Use(Origin())
	r.GET("/ws", srv.HandleWS)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
