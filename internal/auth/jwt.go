package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/config"
)

// TokenVerifier resolves a bearer token to an identity. The core trusts the
// identity it returns; issuing tokens is the auth collaborator's job.
type TokenVerifier interface {
	Verify(tokenString string) (Identity, error)
}

type claims struct {
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(cfg config.Auth) *JWTVerifier {
	return &JWTVerifier{secret: []byte(cfg.JWTSecret)}
}

var _ TokenVerifier = (*JWTVerifier)(nil)

func (v *JWTVerifier) Verify(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperr.InvalidTokenErr.WrapParent(err)
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, apperr.InvalidTokenErr.WrapParent(fmt.Errorf("parse subject: %w", err))
	}

	identity := Identity{
		UserID: userID,
		Role:   Role(c.Role),
	}

	if c.TenantID != "" {
		tenantID, err := uuid.Parse(c.TenantID)
		if err != nil {
			return Identity{}, apperr.InvalidTokenErr.WrapParent(fmt.Errorf("parse tenant id: %w", err))
		}
		identity.TenantID = tenantID
	}

	return identity, nil
}

// Sign issues a token for the given identity. Used by tests and local
// tooling; production tokens come from the auth service.
func (v *JWTVerifier) Sign(identity Identity, ttl time.Duration) (string, error) {
	c := claims{
		Role: string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	if identity.TenantID != uuid.Nil {
		c.TenantID = identity.TenantID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
