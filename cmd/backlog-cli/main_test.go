package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/persistorai/backlog/client"
)

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// isolateHome points HOME at a temp dir and clears BACKLOG_URL.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BACKLOG_URL", "")
	return home
}

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	dir := filepath.Join(home, ".backlog")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestResolveConfig_Precedence(t *testing.T) {
	home := isolateHome(t)
	writeConfig(t, home, "url: http://from-file:1\nformat: json\n")

	root := newRootCmd()
	if err := root.ParseFlags([]string{"--format", "quiet"}); err != nil {
		t.Fatal(err)
	}
	resolveConfig(root)
	if flagURL != "http://from-file:1" {
		t.Errorf("url = %q, want value from config file", flagURL)
	}
	if flagFmt != "quiet" {
		t.Errorf("format = %q, flag should beat the config file", flagFmt)
	}

	t.Setenv("BACKLOG_URL", "http://from-env:2")
	root = newRootCmd()
	resolveConfig(root)
	if flagURL != "http://from-env:2" {
		t.Errorf("url = %q, env should beat the config file", flagURL)
	}
}

func TestBacklogCreate_EndToEnd(t *testing.T) {
	isolateHome(t)

	var got client.BacklogInput
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/backlogs", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		jsonResponse(w, 201, client.Backlog{ID: "b1", RefID: "crm-S2-0a1b2c3d", Title: got.Title})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	out, err := run(t, "--url", srv.URL, "--format", "quiet",
		"backlog", "create", "Fix login", "--project", "crm", "--sprint", "2", "--est", "1.5", "--due", "2026-03-09")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if strings.TrimSpace(out) != "b1" {
		t.Errorf("output = %q, want id", out)
	}

	if got.ProjectSlug != "crm" || got.SprintNumber != 2 || got.EstDays == nil || *got.EstDays != 1.5 {
		t.Errorf("request = %+v", got)
	}

	if got.DueDate == nil || got.DueDate.Format(dateLayout) != "2026-03-09" || got.BegDate != nil {
		t.Errorf("dates = beg %v due %v", got.BegDate, got.DueDate)
	}
}

func TestBacklogUpdate_KeepsUnsetFields(t *testing.T) {
	isolateHome(t)

	var got client.BacklogInput
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/backlogs/ref/crm-S2-0a1b2c3d", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, 200, client.Backlog{ID: "b1", Title: "Fix login", Status: "🚧", ProjectSlug: "crm", AssigneeName: "dana"})
	})
	mux.HandleFunc("PUT /api/v1/backlogs/b1", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		jsonResponse(w, 200, client.Backlog{ID: "b1", Status: got.Status})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	if _, err := run(t, "--url", srv.URL, "--format", "json", "backlog", "update", "crm-S2-0a1b2c3d", "--status", "✅"); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got.Status != "✅" || got.Title != "Fix login" || got.AssigneeName != "dana" || got.ProjectSlug != "crm" {
		t.Errorf("request = %+v", got)
	}
}

func TestProjectList_Table(t *testing.T) {
	isolateHome(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, 200, map[string]any{
			"data":     []client.Project{{ID: "p1", Slug: "crm", Name: "CRM", Pinned: true}},
			"has_more": false,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	out, err := run(t, "--url", srv.URL, "--format", "table", "project", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("output lines = %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[2], "crm") || !strings.HasSuffix(lines[2], "true") {
		t.Errorf("table =\n%s", out)
	}
}

func TestAPIErrorIsReturned(t *testing.T) {
	isolateHome(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/backlogs/ref/nope", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, 404, map[string]string{"code": "not_found", "message": "backlog not found"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	_, err := run(t, "--url", srv.URL, "backlog", "get", "nope")
	if !client.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLooksLikeUUID(t *testing.T) {
	if !looksLikeUUID("0a1b2c3d-0000-4000-8000-000000000001") {
		t.Error("valid uuid rejected")
	}
	for _, s := range []string{"crm-S2-0a1b2c3d", "", "0a1b2c3d00004000800000000000000001xx"} {
		if looksLikeUUID(s) {
			t.Errorf("%q accepted", s)
		}
	}
}
