package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/backlog/internal/api"
)

func TestLiveness_ReturnsOK(t *testing.T) {
	t.Parallel()

	h := api.NewHealthHandler(nil, nil, testLogger(), "test-v1", 3)

	r := gin.New()
	r.GET("/health", h.Liveness)

	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", body["status"])
	}

	if body["version"] != "test-v1" {
		t.Errorf("expected version 'test-v1', got %v", body["version"])
	}

	if body["schema_version"] != float64(3) {
		t.Errorf("expected schema_version 3, got %v", body["schema_version"])
	}

	if body["database"] != "not_configured" {
		t.Errorf("expected database 'not_configured', got %v", body["database"])
	}
}

func TestLiveness_DatabaseDown(t *testing.T) {
	t.Parallel()

	h := api.NewHealthHandler(&fakeDB{pingErr: errors.New("refused")}, nil, testLogger(), "v", 3)

	r := gin.New()
	r.GET("/health", h.Liveness)

	w := doRequest(r, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("liveness must stay 200, got %d", w.Code)
	}

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)

	if body["database"] != "disconnected" {
		t.Errorf("expected database 'disconnected', got %v", body["database"])
	}
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		db     *fakeDB
		status int
		schema string
	}{
		{"ready", &fakeDB{applied: 3}, http.StatusOK, "ok"},
		{"pending migrations", &fakeDB{applied: 2}, http.StatusServiceUnavailable, "error"},
		{"no goose table", &fakeDB{rowErr: errors.New("relation does not exist")}, http.StatusServiceUnavailable, "error"},
		{"database down", &fakeDB{pingErr: errors.New("refused")}, http.StatusServiceUnavailable, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := api.NewHealthHandler(tt.db, nil, testLogger(), "v", 3)

			r := gin.New()
			r.GET("/ready", h.Readiness)

			w := doRequest(r, http.MethodGet, "/ready", "")
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}

			var body struct {
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if body.Checks["schema"] != tt.schema {
				t.Errorf("schema check = %q, want %q", body.Checks["schema"], tt.schema)
			}
		})
	}
}
