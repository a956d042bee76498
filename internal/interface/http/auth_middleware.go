package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/dupcheck/internal/domain/auth"
)

// authMiddleware requires a valid bearer token. When scope is non-empty the
// token must also grant it.
func authMiddleware(svc auth.Service, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing authorization header", nil))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			abortWithError(c, fromDomainError(err, "auth_failed"))
			return
		}
		if scope != "" && !claims.HasScope(scope) {
			abortWithError(c, NewHTTPError(http.StatusForbidden, "insufficient_scope", "token lacks scope "+scope, nil))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}
