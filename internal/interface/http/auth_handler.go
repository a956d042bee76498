package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/dupcheck/internal/domain/auth"
)

// AuthHandler exchanges client credentials for bearer tokens.
type AuthHandler struct {
	svc    auth.Service
	logger *slog.Logger
}

// NewAuthHandler constructs the auth endpoints.
func NewAuthHandler(svc auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger.With("component", "http.auth")}
}

// Token issues an access/refresh pair.
func (h *AuthHandler) Token(c *gin.Context) {
	var req auth.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	resp, err := h.svc.IssueToken(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "auth_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates an access token using a refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, fromDomainError(err, "auth_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
