// Package authtoken issues and verifies the opaque session attach tokens
// Start returns to callers: signed JWTs carrying sessionId/tenantId,
// verified once by the attach channel and otherwise treated as opaque by
// clients.
package authtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("authtoken: invalid or expired token")
)

// Claims identifies the session and tenant an attach token authorizes.
type Claims struct {
	SessionID string `json:"sessionId"`
	TenantID  string `json:"tenantId"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies attach tokens with one HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue returns a signed attachToken for sessionId/tenantId.
func (i *Issuer) Issue(sessionID, tenantID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		TenantID:  tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("authtoken: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an attach token, returning its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("authtoken: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
