// Package api wires the HTTP surface: the search API, the deal extraction
// API, and the static search page.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plenzo-app/plenzo/api/handler"
	"github.com/plenzo-app/plenzo/api/middleware"
	"github.com/plenzo-app/plenzo/api/web"
	"github.com/plenzo-app/plenzo/cache"
	"github.com/plenzo-app/plenzo/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	/api:    RateLimit
//
// The health endpoint sits outside rate limiting so monitoring probes
// always work.
func NewRouter(searcher handler.Searcher, finder handler.DealFinder, sp handler.StatsProvider, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Static search page.
	r.GET("/", web.Index)

	// Health — no rate limit.
	r.GET("/api/health", handler.Health(sp, startTime))

	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.RateLimit(cfg.RateLimit))

	apiGroup.GET("/search", handler.Search(searcher, cc))
	apiGroup.GET("/deal", handler.Deal(finder))

	return r
}
