package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"spendwise/internal/logger"
)

func init() {
	logger.Init("test")
}

func TestRequestLogging_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	tests := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{"generated when absent", "", false},
		{"reused when present", "req-123", true},
		{"replaced when oversized", strings.Repeat("x", 65), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tc.incoming != "" {
				req.Header.Set("X-Request-ID", tc.incoming)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if got == "" {
				t.Fatal("expected X-Request-ID header")
			}
			if got != rec.Body.String() {
				t.Errorf("context id %q differs from header %q", rec.Body.String(), got)
			}
			if (got == tc.incoming) != tc.reused {
				t.Errorf("incoming %q, got %q", tc.incoming, got)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://app.example.com"))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("unexpected origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for simple request, got %d", rec.Code)
	}
}
