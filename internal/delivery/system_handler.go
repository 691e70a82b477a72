package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type UpstreamStatus interface {
	Serving() bool
}

// RegisterSystemRoutes adds the root redirect and the liveness probe.
func RegisterSystemRoutes(router gin.IRouter, upstream UpstreamStatus) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/products")
	})
	router.GET("/health", func(c *gin.Context) {
		upstreamStatus := "ok"
		if upstream != nil && !upstream.Serving() {
			upstreamStatus = "unavailable"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "upstream": upstreamStatus})
	})
}
