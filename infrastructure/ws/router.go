package ws

import (
	"log/slog"
	"net/http"
	"space-chat/observability"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter exposes the websocket endpoint and a health probe carrying the monitoring counters.
func NewRouter(log *slog.Logger, handler *Handler, monitoring *observability.MonitoringManager) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/ws", handler.ServeWebSocket)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"monitoring": monitoring.GetLatest(),
		})
	})
	return router
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
