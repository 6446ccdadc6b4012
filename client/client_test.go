package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, New(srv.URL + "/")
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestHealth(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, HealthResponse{Status: "ok", Version: "1.2.0", SchemaVersion: 3})
		},
	})
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" || resp.SchemaVersion != 3 {
		t.Errorf("got %+v", resp)
	}
}

func TestProjectsCRUD(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/projects": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("pinned") != "true" {
				t.Errorf("pinned param = %q", r.URL.Query().Get("pinned"))
			}
			jsonResponse(w, 200, page[Project]{Data: []Project{{ID: "p1", Slug: "crm"}}, HasMore: true})
		},
		"POST /api/v1/projects": func(w http.ResponseWriter, r *http.Request) {
			var req ProjectInput
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 201, Project{ID: "p1", Name: req.Name, Slug: req.Slug})
		},
		"GET /api/v1/projects/p1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Project{ID: "p1", Slug: "crm"})
		},
		"DELETE /api/v1/projects/p1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Project{ID: "p1", Slug: "crm"})
		},
	})
	ctx := context.Background()

	pinned := true
	list, more, err := c.Projects.List(ctx, &ProjectListOptions{Pinned: &pinned})
	if err != nil || len(list) != 1 || !more {
		t.Fatalf("List() = %v, %v, %v", list, more, err)
	}

	p, err := c.Projects.Create(ctx, &ProjectInput{Name: "CRM", Slug: "crm"})
	if err != nil || p.Slug != "crm" {
		t.Fatalf("Create() = %+v, %v", p, err)
	}

	if _, err := c.Projects.Get(ctx, "p1"); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if p, err := c.Projects.Delete(ctx, "p1"); err != nil || p.ID != "p1" {
		t.Fatalf("Delete() = %+v, %v", p, err)
	}
}

func TestBacklogsQueryAndRef(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/backlogs": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("project") != "crm" || q.Get("sprint") != "0" || q.Get("limit") != "10" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			jsonResponse(w, 200, page[Backlog]{Data: []Backlog{{ID: "b1"}}})
		},
		"GET /api/v1/backlogs/ref/crm-S0-0a1b2c3d": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Backlog{ID: "b1", RefID: "crm-S0-0a1b2c3d"})
		},
		"GET /api/v1/backlogs/b1/audits": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("field") != "status" {
				t.Errorf("field = %q", r.URL.Query().Get("field"))
			}
			v := "✅"
			jsonResponse(w, 200, page[AuditRecord]{Data: []AuditRecord{{FieldName: "status", NewValue: &v}}})
		},
	})
	ctx := context.Background()

	sprint := 0
	list, _, err := c.Backlogs.List(ctx, &BacklogListOptions{Project: "crm", Sprint: &sprint, Limit: 10})
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}

	b, err := c.Backlogs.GetByRef(ctx, "crm-S0-0a1b2c3d")
	if err != nil || b.ID != "b1" {
		t.Fatalf("GetByRef() = %+v, %v", b, err)
	}

	audits, _, err := c.Backlogs.Audits(ctx, "b1", &AuditListOptions{Field: "status"})
	if err != nil || len(audits) != 1 || audits[0].OldValue != nil {
		t.Fatalf("Audits() = %+v, %v", audits, err)
	}
}

func TestAPIErrors(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/backlogs/missing": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 404, map[string]string{"code": "not_found", "message": "backlog not found", "request_id": "r1"})
		},
		"POST /api/v1/projects": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 409, map[string]string{"code": "conflict", "message": "exists"})
		},
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(502)
			w.Write([]byte("bad gateway")) //nolint:errcheck
		},
	})
	ctx := context.Background()

	_, err := c.Backlogs.Get(ctx, "missing")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	_, err = c.Projects.Create(ctx, &ProjectInput{Name: "CRM", Slug: "crm"})
	if !IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}

	_, err = c.Health(ctx)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Code != "unknown" || apiErr.Message != "bad gateway" {
		t.Errorf("expected raw-text APIError, got %v", err)
	}
}
