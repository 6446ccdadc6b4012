// Package api provides the HTTP handlers and router of the backlog server.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// DBChecker is the database surface the health endpoints check.
type DBChecker interface {
	HealthCheck(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ClientCounter reports live feed connections.
type ClientCounter interface {
	ClientCount() int
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db            DBChecker
	hub           ClientCounter
	log           *logrus.Logger
	version       string
	schemaVersion int
	startTime     time.Time
}

// NewHealthHandler creates a HealthHandler. db and hub may be nil.
func NewHealthHandler(db DBChecker, hub ClientCounter, log *logrus.Logger, version string, schemaVersion int) *HealthHandler {
	return &HealthHandler{
		db:            db,
		hub:           hub,
		log:           log,
		version:       version,
		schemaVersion: schemaVersion,
		startTime:     time.Now(),
	}
}

// readinessResponse is the JSON payload returned by the readiness endpoint.
type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// healthResponse is the JSON payload returned by the health/liveness endpoint.
type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	SchemaVersion int     `json:"schema_version"`
	Database      string  `json:"database"`
	LiveClients   int     `json:"live_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		SchemaVersion: h.schemaVersion,
		Database:      "connected",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	// Best-effort database ping (non-fatal for liveness).
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.HealthCheck(ctx); err != nil {
			resp.Database = "disconnected"
		}
	} else {
		resp.Database = "not_configured"
	}

	if h.hub != nil {
		resp.LiveClients = h.hub.ClientCount()
	}

	c.JSON(http.StatusOK, resp)
}

// Readiness handles GET /api/v1/ready. It checks connectivity and that every
// embedded migration has been applied.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := map[string]string{
		"database": "ok",
		"schema":   "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, readinessResponse{
			Status: "not_ready",
			Checks: map[string]string{"database": "not_configured", "schema": "unknown"},
		})

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.WithError(err).Error("readiness: database health check failed")
		checks["database"] = "error"
		checks["schema"] = "unknown"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	} else if err := h.checkSchema(ctx); err != nil {
		h.log.WithError(err).Error("readiness: schema check failed")
		checks["schema"] = "error"
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readinessResponse{
		Status: status,
		Checks: checks,
	})
}

// checkSchema compares the applied goose version with the embedded one.
func (h *HealthHandler) checkSchema(ctx context.Context) error {
	var applied int64
	err := h.db.QueryRow(ctx,
		"SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied").Scan(&applied)
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}

	if applied < int64(h.schemaVersion) {
		return fmt.Errorf("schema at version %d, want %d", applied, h.schemaVersion)
	}

	return nil
}
