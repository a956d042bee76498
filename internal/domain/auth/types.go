package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	Secret          string
	Issuer          string
	TokenTTL        time.Duration
	RefreshTokenTTL time.Duration
}

// Client is an API consumer allowed to request tokens.
type Client struct {
	ID         string
	SecretHash string
	Scopes     []string
}

// TokenRequest exchanges client credentials for tokens.
type TokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// RefreshRequest encapsulates refresh token payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse returns the signed tokens.
type TokenResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	ClientID  string
	Scopes    []string
	TokenType string
	ExpiresAt time.Time
}

// HasScope reports whether the token grants scope.
func (c Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
