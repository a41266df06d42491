package middleware

import (
	"fmt"
	"time"

	"scoreboard/internal/scoreboard/service"
	"scoreboard/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

type RateLimitPolicy struct {
	Window   time.Duration
	IPMax    int
	RouteMax int
}

// RateLimitMiddleware enforces per-client and per-route limits on routeKey.
// The contest name is part of the key when the route has one.
func RateLimitMiddleware(rateService *service.RateLimitService, routeKey string, policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateService == nil {
			c.Next()
			return
		}
		route := routeKey
		if name := c.Param("name"); name != "" {
			route = fmt.Sprintf("%s:%s", name, routeKey)
		}

		if policy.IPMax > 0 {
			key := fmt.Sprintf("scoreboard:rate:ip:%s:%s", c.ClientIP(), route)
			if err := rateService.Allow(c.Request.Context(), key, policy.IPMax, policy.Window); err != nil {
				response.AbortWithError(c, err)
				return
			}
		}
		if policy.RouteMax > 0 {
			key := fmt.Sprintf("scoreboard:rate:route:%s", route)
			if err := rateService.Allow(c.Request.Context(), key, policy.RouteMax, policy.Window); err != nil {
				response.AbortWithError(c, err)
				return
			}
		}
		c.Next()
	}
}
