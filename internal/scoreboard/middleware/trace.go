package middleware

import (
	"context"
	"strings"
	"time"

	"scoreboard/pkg/utils/contextkey"
	"scoreboard/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TraceIDHeader   = "X-Trace-Id"
	RequestIDHeader = "X-Request-Id"
)

// RequestContext tags the request context with trace and request ids,
// echoes them as headers and logs one line per finished request.
// Upstream ids are kept so a proxy's trace survives.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		for _, id := range []struct {
			header string
			key    interface{}
		}{
			{TraceIDHeader, contextkey.TraceID},
			{RequestIDHeader, contextkey.RequestID},
		} {
			value := strings.TrimSpace(c.GetHeader(id.header))
			if value == "" {
				value = uuid.NewString()
			}
			ctx = context.WithValue(ctx, id.key, value)
			c.Writer.Header().Set(id.header, value)
		}
		if name := c.Param("name"); name != "" {
			ctx = logger.WithContest(ctx, name)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		logger.Info(ctx, "request completed",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
