package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
	corsMaxAge       = "600"
)

// corsMiddleware answers preflight requests and echoes the matched origin.
// An empty allow list means any origin.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := len(allowed) == 0
	for _, origin := range allowed {
		if origin == "*" {
			wildcard = true
		}
	}

	return func(c *gin.Context) {
		headers := c.Writer.Header()
		origin := c.GetHeader("Origin")
		if wildcard {
			headers.Set("Access-Control-Allow-Origin", "*")
		} else {
			headers.Add("Vary", "Origin")
			if matched, ok := matchOrigin(origin, allowed); ok {
				headers.Set("Access-Control-Allow-Origin", matched)
			}
		}
		headers.Set("Access-Control-Allow-Methods", corsAllowMethods)
		headers.Set("Access-Control-Allow-Headers", corsAllowHeaders)

		if c.Request.Method == http.MethodOptions {
			headers.Set("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func matchOrigin(origin string, allowed []string) (string, bool) {
	if origin == "" {
		return "", false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimSuffix(candidate, "/"), origin) {
			return origin, true
		}
	}
	return "", false
}
