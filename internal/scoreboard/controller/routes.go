package controller

import (
	"time"

	"scoreboard/internal/scoreboard/middleware"
	"scoreboard/internal/scoreboard/service"

	"github.com/gin-gonic/gin"
)

// RouteConfig carries the collaborators of the HTTP surface.
type RouteConfig struct {
	Registry    *service.Registry
	Reveal      *service.RevealService
	RateLimiter *service.RateLimitService
	APIKey      string
	RunsAllRate middleware.RateLimitPolicy
	CORS        middleware.CORSConfig
}

// DefaultRunsAllRate bounds secret guessing on /runs-all.
var DefaultRunsAllRate = middleware.RateLimitPolicy{Window: time.Minute, IPMax: 30}

// RegisterRoutes mounts every scoreboard endpoint under /api/v1/contests.
func RegisterRoutes(router gin.IRouter, cfg RouteConfig) {
	contests := NewContestController(cfg.Registry)
	streams := NewStreamController(cfg.Registry, cfg.CORS.AllowsOrigin)
	reveal := NewRevealController(cfg.Registry, cfg.Reveal)
	adminOnly := middleware.APIKeyMiddleware(cfg.APIKey)

	policy := cfg.RunsAllRate
	if policy.IPMax == 0 && policy.RouteMax == 0 {
		policy = DefaultRunsAllRate
	}

	router.Use(middleware.CORSMiddleware(cfg.CORS))
	api := router.Group("/api/v1/contests")
	api.GET("", contests.List)
	api.POST("", adminOnly, contests.Create)

	contest := api.Group("/:name")
	contest.GET("/contest", contests.Contest)
	contest.GET("/config", contests.Config)
	contest.GET("/panel", contests.Panel)
	contest.GET("/standings", contests.Standings)
	contest.GET("/runs", streams.Runs)
	contest.GET("/timer", streams.Timer)
	contest.GET("/runs-all", middleware.RateLimitMiddleware(cfg.RateLimiter, "runs-all", policy), contests.RunsAll)
	contest.PUT("/state", adminOnly, contests.PutState)

	contest.POST("/reveal", middleware.RateLimitMiddleware(cfg.RateLimiter, "reveal", policy), reveal.Open)
	contest.GET("/reveal", reveal.View)
	contest.DELETE("/reveal", reveal.Close)
	contest.POST("/reveal/:action", reveal.Act)
}
