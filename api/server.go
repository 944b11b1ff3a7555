// Package api wires the HTTP and WebSocket surface around the services.
// It owns no state machine of its own: every decision beyond transport
// concerns (auth, rate limiting, CORS) is delegated inward.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"chat-vault/realtime"
	"chat-vault/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	// APIKeys authorizes read endpoints; an empty list rejects everything.
	APIKeys []string
	// RateLimit caps admissions per client IP within RateLimitWindow;
	// zero disables limiting.
	RateLimit       int
	RateLimitWindow time.Duration
	AllowedOrigins  []string
}

func NewRouter(
	config RouterConfig,
	log *slog.Logger,
	messages services.IMessageService,
	queries services.IQueryService,
	hub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(corsMiddleware(config.AllowedOrigins))

	h := newHandler(log, messages, queries, hub)

	router.GET("/health", h.Health)
	router.GET("/ws", h.Subscribe)

	apiGroup := router.Group("/api")
	apiGroup.POST("/messages", rateLimit(config.RateLimit, config.RateLimitWindow), h.CreateMessage)

	authorized := apiGroup.Group("", apiKeyAuth(config.APIKeys))
	authorized.GET("/messages/:session_id", h.GetMessagesBySession)
	authorized.GET("/message/:message_id", h.GetMessageByID)
	authorized.GET("/sessions/:session_id/stats", h.GetSessionStats)
	authorized.GET("/messages/search/all", h.SearchMessages)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		return cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
			MaxAge:          12 * time.Hour,
		})
	}
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
