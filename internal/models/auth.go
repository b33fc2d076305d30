package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeChallengeReply allows a client to deliver captcha replies.
const ScopeChallengeReply = "challenges:reply"

// TokenRequest asks for a reply bridge token.
type TokenRequest struct {
	Subject string        `json:"subject" validate:"required,max=100"`
	Scopes  []string      `json:"scopes" validate:"omitempty,dive,oneof=challenges:reply"`
	TTL     time.Duration `json:"ttl"`
}

// TokenResponse returns an issued token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload accepted by the reply bridge.
type JWTClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope reports whether the claims grant scope.
func (c *JWTClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
