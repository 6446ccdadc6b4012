package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/domain"
	"github.com/persistorai/backlog/internal/middleware"
	"github.com/persistorai/backlog/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	DB            DBChecker
	Hub           *ws.Hub
	Projects      domain.ProjectService
	Backlogs      domain.BacklogService
	Audits        domain.AuditService
	CORSOrigins   []string
	Version       string
	SchemaVersion int
	RateLimit     int
	RateBurst     int
	MaxBodyBytes  int64
}

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, deps.RateLimit, deps.RateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.DB, deps.Hub, log, deps.Version, deps.SchemaVersion)
	projects := NewProjectHandler(deps.Projects, deps.Audits, log)
	backlogs := NewBacklogHandler(deps.Backlogs, deps.Audits, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Projects.
	api.GET("/projects", projects.List)
	api.POST("/projects", projects.Create)
	api.GET("/projects/:id", projects.Get)
	api.PUT("/projects/:id", projects.Update)
	api.DELETE("/projects/:id", projects.Delete)
	api.GET("/projects/:id/audits", projects.Audits)

	// Backlogs.
	api.GET("/backlogs", backlogs.List)
	api.POST("/backlogs", backlogs.Create)
	api.GET("/backlogs/project/:slug", backlogs.ListByProject)
	api.GET("/backlogs/ref/:ref", backlogs.GetByRef)
	api.GET("/backlogs/:id", backlogs.Get)
	api.PUT("/backlogs/:id", backlogs.Update)
	api.DELETE("/backlogs/:id", backlogs.Delete)
	api.GET("/backlogs/:id/audits", backlogs.Audits)

	// Live change feed.
	if deps.Hub != nil {
		api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
