package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/dupcheck/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "auth.service"),
		now:    time.Now,
	}
}

// HashSecret produces the bcrypt hash stored for a client secret.
func HashSecret(secret string) (string, error) {
	if len(secret) < 12 {
		return "", fmt.Errorf("client secret must be at least 12 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *service) IssueToken(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" || req.ClientSecret == "" {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "client credentials required", nil)
	}
	client, ok, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeAuth, "client lookup failed", err)
	}
	if !ok {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid client credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(req.ClientSecret)); err != nil {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid client credentials", nil)
	}
	s.logger.Info("token issued", "client", client.ID)
	return s.buildTokenResponse(client.ID, client.Scopes)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeInvalidToken, "refresh token missing", nil)
	}
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	// Clients removed from configuration lose the ability to refresh.
	client, ok, err := s.repo.GetClient(ctx, claims.ClientID)
	if err != nil {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeAuth, "client lookup failed", err)
	}
	if !ok {
		return TokenResponse{}, apperrors.Wrap(apperrors.CodeInvalidToken, "client no longer registered", nil)
	}
	return s.buildTokenResponse(client.ID, client.Scopes)
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token type mismatch", nil)
	}
	return claims, nil
}

// Mint signs an access token directly, bypassing client credentials.
// It backs operator tooling that already holds the signing secret.
func Mint(cfg Config, clientID string, scopes []string, ttl time.Duration) (string, error) {
	s := &service{cfg: cfg, now: time.Now}
	return s.generateToken(clientID, scopes, tokenTypeAccess, ttl)
}

func (s *service) buildTokenResponse(clientID string, scopes []string) (TokenResponse, error) {
	access, err := s.generateToken(clientID, scopes, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh, err := s.generateToken(clientID, scopes, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    s.now().Add(s.cfg.TokenTTL),
	}, nil
}

func (s *service) generateToken(clientID string, scopes []string, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Scopes:    scopes,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   clientID,
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeAuth, "failed to sign token", err)
	}
	return signed, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token missing expiry", nil)
	}
	if s.cfg.Issuer != "" && claims.Issuer != s.cfg.Issuer {
		return Claims{}, apperrors.Wrap(apperrors.CodeInvalidToken, "token issuer mismatch", nil)
	}
	return Claims{
		ClientID:  claims.Subject,
		Scopes:    claims.Scopes,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Scopes    []string `json:"scopes,omitempty"`
	TokenType string   `json:"type"`
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
