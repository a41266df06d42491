package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"scoreboard/internal/scoreboard/middleware"
	"scoreboard/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
)

func TestRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestContext())
	router.GET("/contests/:name", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.String(http.StatusOK, "%v|%v|%v",
			ctx.Value(contextkey.TraceID), ctx.Value(contextkey.RequestID), ctx.Value(contextkey.Contest))
	})

	cases := []struct {
		name      string
		headers   map[string]string
		traceID   string
		requestID string
	}{
		{name: "generate ids"},
		{
			name:      "keep upstream ids",
			headers:   map[string]string{"X-Trace-Id": "trace-1", "X-Request-Id": " request-1 "},
			traceID:   "trace-1",
			requestID: "request-1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/contests/finals", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			router.ServeHTTP(rec, req)

			trace := rec.Header().Get(middleware.TraceIDHeader)
			request := rec.Header().Get(middleware.RequestIDHeader)
			if trace == "" || request == "" {
				t.Fatalf("expected id headers, got %q %q", trace, request)
			}
			if tc.traceID != "" && (trace != tc.traceID || request != tc.requestID) {
				t.Fatalf("upstream ids not kept: %q %q", trace, request)
			}
			if want := fmt.Sprintf("%s|%s|finals", trace, request); rec.Body.String() != want {
				t.Fatalf("context ids = %q, want %q", rec.Body.String(), want)
			}
		})
	}
}
