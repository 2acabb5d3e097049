package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/metrics"
	"github.com/mamadbah2/flockage/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. history is nil
// without a snapshot archive and chat is nil when WhatsApp is not configured.
func New(flocks *handlers.FlockHandler, history *handlers.HistoryHandler, chat *handlers.ChatHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	api.GET("/age", flocks.AgeByDate)
	api.GET("/date", flocks.DateByAge)
	api.GET("/flocks", flocks.List)
	api.GET("/flocks/ages", flocks.BatchAges)
	api.GET("/flocks/dates", flocks.BatchDates)
	api.PUT("/flocks/:name", flocks.Upsert)
	api.DELETE("/flocks/:name", flocks.Delete)
	if history != nil {
		api.GET("/flocks/:name/history", history.History)
	}

	if chat != nil {
		r.GET("/webhook", chat.Subscribe)
		r.POST("/webhook", chat.Inbound)
		r.POST("/send-message", chat.Outbound)
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized",
			zap.Bool("history", history != nil),
			zap.Bool("chat", chat != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
