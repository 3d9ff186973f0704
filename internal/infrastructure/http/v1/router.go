package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaennil/guide_helper/backend/tiledb/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/config"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tiledb/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-ID"

func NewRouter(handler *handler.Handler, l logger.Logger, cors config.CORS, telemetryEnabled bool) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())

	// Add OpenTelemetry middleware if enabled
	if telemetryEnabled {
		r.Use(telemetry.GinMiddleware())
	}

	r.Use(ginZapLogger(l))
	r.Use(corsMiddleware(cors))
	r.Use(securityHeaders())

	api := r.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/healthz", handler.Healthz)

	maps := v1.Group("/maps")
	maps.GET("", handler.ListMaps)
	maps.POST("", handler.AddMap)
	maps.GET("/:id", handler.GetMap)
	maps.DELETE("/:id", handler.DeleteMap)
	maps.GET("/:id/stats", handler.MapStats)

	v1.POST("/database/:id", handler.Download)

	tile := v1.Group("/tile")
	tile.GET("/local/:id", handler.TileLocal)
	tile.GET("/local/:id/:z/:x/:y", handler.TileLocalPath)
	tile.GET("/provider/*url", handler.Relay)

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Set("logger", l)

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		l.Info("request",
			"request_id", requestID,
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}

// corsMiddleware lets browser map clients on other origins call the API.
// Preflight requests are answered here and never reach a handler.
func corsMiddleware(cfg config.CORS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AllowedOrigin != "" {
			c.Header("Access-Control-Allow-Origin", cfg.AllowedOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, If-None-Match, "+requestIDHeader)
			c.Header("Access-Control-Expose-Headers", "ETag, X-Tile-Source, "+requestIDHeader)
			if cfg.AllowedOrigin != "*" {
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// securityHeaders sets the basic hardening headers. Cross-origin resource
// policy stays unset so tiles can be embedded by other sites.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
