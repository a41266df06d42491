package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scoreboard/internal/scoreboard/middleware"

	"github.com/gin-gonic/gin"
)

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		config     middleware.CORSConfig
		method     string
		origin     string
		wantStatus int
		wantOrigin string
		wantMaxAge string
	}{
		{
			name:       "disabled",
			method:     http.MethodGet,
			origin:     "https://board.example",
			wantStatus: http.StatusOK,
		},
		{
			name:       "allowed preflight",
			config:     middleware.CORSConfig{AllowedOrigins: []string{"https://board.example"}, MaxAge: 10 * time.Minute},
			method:     http.MethodOptions,
			origin:     "https://board.example",
			wantStatus: http.StatusNoContent,
			wantOrigin: "https://board.example",
			wantMaxAge: "600",
		},
		{
			name:       "blocked preflight",
			config:     middleware.CORSConfig{AllowedOrigins: []string{"https://board.example"}},
			method:     http.MethodOptions,
			origin:     "https://other.example",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "blocked simple request passes without headers",
			config:     middleware.CORSConfig{AllowedOrigins: []string{"https://board.example"}},
			method:     http.MethodGet,
			origin:     "https://other.example",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard",
			config:     middleware.CORSConfig{AllowedOrigins: []string{"*"}},
			method:     http.MethodGet,
			origin:     "https://anything.example",
			wantStatus: http.StatusOK,
			wantOrigin: "*",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(middleware.CORSMiddleware(tc.config))
			router.GET("/standings", func(c *gin.Context) { c.Status(http.StatusOK) })

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, "/standings", nil)
			req.Header.Set("Origin", tc.origin)
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("expected allow origin %q, got %q", tc.wantOrigin, got)
			}
			if got := rec.Header().Get("Access-Control-Max-Age"); got != tc.wantMaxAge {
				t.Fatalf("expected max age %q, got %q", tc.wantMaxAge, got)
			}
		})
	}
}

func TestCORSAllowsOrigin(t *testing.T) {
	cfg := middleware.CORSConfig{AllowedOrigins: []string{" https://Board.example "}}
	if !cfg.AllowsOrigin("") {
		t.Fatalf("requests without origin must pass")
	}
	if !cfg.AllowsOrigin("https://board.example") {
		t.Fatalf("origin match should ignore case and spaces")
	}
	if cfg.AllowsOrigin("https://evil.example") {
		t.Fatalf("unexpected origin allowed")
	}
	if !(middleware.CORSConfig{}).AllowsOrigin("https://evil.example") {
		t.Fatalf("disabled config allows every origin")
	}
}
