package http

import (
	"github.com/gin-gonic/gin"

	"github.com/yanqian/dupcheck/internal/domain/auth"
)

// ctxClaims is where authMiddleware leaves the verified token for handlers.
const ctxClaims = "dupcheck.claims"

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(ctxClaims, claims)
}

func getClaims(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Value(ctxClaims).(auth.Claims)
	return claims, ok
}

// requestClient names the caller for logs: the token subject, or "anonymous".
func requestClient(c *gin.Context) string {
	if claims, ok := getClaims(c); ok && claims.ClientID != "" {
		return claims.ClientID
	}
	return "anonymous"
}
