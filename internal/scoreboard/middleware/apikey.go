package middleware

import (
	"crypto/subtle"

	pkgerrors "scoreboard/pkg/errors"
	"scoreboard/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the admin key on write routes.
const APIKeyHeader = "apikey"

// APIKeyMiddleware guards admin routes with a shared key.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "api key is not configured")
			return
		}
		got := c.GetHeader(APIKeyHeader)
		if got == "" {
			response.AbortWithErrorCode(c, pkgerrors.ApiKeyMissing, "")
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			response.AbortWithErrorCode(c, pkgerrors.ApiKeyIncorrect, "")
			return
		}
		c.Next()
	}
}
