package server

import (
	"github.com/gin-gonic/gin"

	"ifs-actionplan/internal/guide"
	"ifs-actionplan/internal/plans"
	"ifs-actionplan/internal/recommendations"
	"ifs-actionplan/internal/services/health"
	"ifs-actionplan/internal/shared/config"
	"ifs-actionplan/internal/shared/metrics"
	"ifs-actionplan/internal/shared/server/middleware"
	"ifs-actionplan/internal/shared/server/respond"
)

const (
	healthPath  = "/api/v1/health"
	metricsPath = "/metrics"
)

// RouterDeps holds the handlers mounted by NewRouter.
type RouterDeps struct {
	Config                config.Config
	Health                *health.Service
	PlanHandler           *plans.Handler
	RecommendationHandler *recommendations.Handler
	GuideHandler          *guide.Handler
	RateLimiter           *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(healthPath, metricsPath),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   middleware.DefaultRules(),
			Limiter: deps.RateLimiter,
			GroupFor: func(c *gin.Context) string {
				if recommendations.IsLLMRoute(c) {
					return middleware.GroupLLM
				}
				return middleware.GroupDefault
			},
		}),
	)

	r.GET(metricsPath, metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		respond.OK(c, deps.Health.Status(c.Request.Context()))
	})
	registerMeRoutes(api)

	if deps.PlanHandler != nil {
		deps.PlanHandler.RegisterRoutes(api)
	}
	if deps.RecommendationHandler != nil {
		deps.RecommendationHandler.RegisterRoutes(api)
	}
	if deps.GuideHandler != nil {
		deps.GuideHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
