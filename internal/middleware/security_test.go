package middleware_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	expected := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":           "no-store",
	}

	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}

	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS must not be sent over plain HTTP, got %q", got)
	}

	tlsReq := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	tlsReq.TLS = &tls.ConnectionState{}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, tlsReq)

	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("expected HSTS over TLS")
	}
}

func TestMaxBodySize_RejectsLargeContentLength(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.MaxBodySize(8))
	r.POST("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"title":"too long"}`)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

func TestRequestID_SetsHeaderAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	log := logrus.New()

	var entry *logrus.Entry

	r := gin.New()
	r.Use(middleware.RequestID(log))
	r.GET("/test", func(c *gin.Context) {
		entry = middleware.Logger(c, log)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "client-abc")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(middleware.RequestIDHeader)
	if id == "" || id == "client-abc" {
		t.Fatalf("expected server-generated request id, got %q", id)
	}

	if entry == nil {
		t.Fatal("handler did not receive a logger")
	}

	if entry.Data["request_id"] != id || entry.Data["client_request_id"] != "client-abc" {
		t.Errorf("logger fields = %v", entry.Data)
	}
}
