package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowedMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsAllowedHeaders = "Authorization,Content-Type," + APIKeyHeader
	corsExposedHeaders = "X-Trace-Id,X-Request-Id"
)

// CORSConfig lists the browser origins allowed to read the scoreboard.
// An empty list disables CORS headers entirely.
type CORSConfig struct {
	AllowedOrigins []string      `yaml:"allowedOrigins"`
	MaxAge         time.Duration `yaml:"maxAge"`
}

func (c CORSConfig) Enabled() bool {
	return len(c.AllowedOrigins) > 0
}

// AllowsOrigin reports whether origin may open a stream or call the API.
// Requests without an Origin header and disabled configs are always allowed.
func (c CORSConfig) AllowsOrigin(origin string) bool {
	if origin == "" || !c.Enabled() {
		return true
	}
	for _, item := range c.AllowedOrigins {
		item = strings.TrimSpace(item)
		if item == "*" || strings.EqualFold(item, origin) {
			return true
		}
	}
	return false
}

// CORSMiddleware answers preflights and stamps CORS headers for allowed origins.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	if !cfg.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	wildcard := false
	for _, item := range cfg.AllowedOrigins {
		if strings.TrimSpace(item) == "*" {
			wildcard = true
		}
	}
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if !cfg.AllowsOrigin(origin) {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		header := c.Writer.Header()
		if wildcard {
			header.Set("Access-Control-Allow-Origin", "*")
		} else {
			header.Set("Access-Control-Allow-Origin", origin)
			header.Add("Vary", "Origin")
		}
		header.Set("Access-Control-Allow-Methods", corsAllowedMethods)
		header.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		header.Set("Access-Control-Expose-Headers", corsExposedHeaders)
		if maxAge != "" {
			header.Set("Access-Control-Max-Age", maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
