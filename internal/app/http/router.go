package http

import (
	"github.com/fardannozami/wa-session-gateway/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	CORSOrigins []string
	Logger      zerolog.Logger
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	metrics.RegisterMetrics()

	r := gin.New()
	r.Use(RequestID(), RequestLogger(cfg.Logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/users", h.CreateUser)
	api.GET("/jobs/:job", h.RequireUser(), h.Job)

	sessions := api.Group("/sessions", h.RequireUser())
	sessions.GET("", h.Sessions)
	sessions.GET("/stream", h.SessionsStream)

	one := sessions.Group("/:session", h.RequireSessionOwner())
	one.POST("", h.CreateSession)
	one.DELETE("", h.DeleteSession)
	one.GET("/status", h.SessionStatus)
	one.POST("/stop", h.StopSession)
	one.GET("/pair", h.PairCode)
	one.GET("/pair/stream", h.PairStream)
	one.POST("/messages", h.SendMessage)
	one.POST("/batch", h.SendBatch)
	one.POST("/fanout", h.SendFanout)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID", userIDHeader)
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
