package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/harvest/api/handler"
	"github.com/use-agent/harvest/api/middleware"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/metrics"
	"github.com/use-agent/harvest/session"
)

// Deps are the services the routes call into.
type Deps struct {
	Stats    handler.StatsSource
	Sessions *session.Manager
	Runner   handler.Launcher
	Stores   handler.StoreOpener
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → Metrics
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so health checks and scrapers always work.
func NewRouter(deps Deps, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(metrics.GinMiddleware())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(deps.Stats, deps.Sessions, startTime))
	v1.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Catalog
	protected.GET("/models", handler.ListModels(cfg.Credentials))

	// Sessions
	protected.POST("/sessions", handler.CreateSession(deps.Sessions))
	protected.GET("/sessions/:id", handler.GetSession(deps.Sessions))
	protected.DELETE("/sessions/:id", handler.DeleteSession(deps.Sessions))
	protected.POST("/sessions/:id/urls", handler.AddURLs(deps.Sessions))
	protected.DELETE("/sessions/:id/urls", handler.ClearURLs(deps.Sessions))
	protected.POST("/sessions/:id/launch", handler.Launch(deps.Sessions, deps.Runner))
	protected.POST("/sessions/:id/clear", handler.ClearResults(deps.Sessions))
	protected.GET("/sessions/:id/export/:artifact", handler.Export(deps.Sessions))

	// One-shot runs
	protected.POST("/runs", handler.Run(deps.Sessions, deps.Runner))

	// Records
	protected.GET("/records/:key", handler.GetRecord(deps.Sessions, deps.Stores, cfg.Credentials))

	return r
}
