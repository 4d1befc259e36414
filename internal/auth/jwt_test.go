package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atandjijero/Saas/internal/apperr"
	"github.com/atandjijero/Saas/internal/auth"
	"github.com/atandjijero/Saas/internal/config"
)

func TestJWTVerifier(t *testing.T) {
	verifier := auth.NewJWTVerifier(config.Auth{JWTSecret: "test-secret"})

	t.Run("Should round-trip an identity", func(t *testing.T) {
		identity := auth.Identity{
			UserID:   uuid.New(),
			TenantID: uuid.New(),
			Role:     auth.RoleVendeur,
		}

		token, err := verifier.Sign(identity, time.Minute)
		require.NoError(t, err)

		got, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, identity, got)
	})

	t.Run("Should round-trip a superadmin without a tenant", func(t *testing.T) {
		identity := auth.Identity{UserID: uuid.New(), Role: auth.RoleSuperadmin}

		token, err := verifier.Sign(identity, time.Minute)
		require.NoError(t, err)

		got, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, got.TenantID)
		assert.Equal(t, auth.RoleSuperadmin, got.Role)
	})

	t.Run("Should reject a token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTVerifier(config.Auth{JWTSecret: "other-secret"})
		token, err := other.Sign(auth.Identity{UserID: uuid.New(), Role: auth.RoleVendeur}, time.Minute)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, apperr.InvalidTokenErr)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		token, err := verifier.Sign(auth.Identity{UserID: uuid.New(), Role: auth.RoleVendeur}, -time.Minute)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, apperr.InvalidTokenErr)
	})

	t.Run("Should reject garbage", func(t *testing.T) {
		_, err := verifier.Verify("not-a-token")
		assert.ErrorIs(t, err, apperr.InvalidTokenErr)
	})
}
