// auth/jwt_test.go
package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmesh/campus/api/auth"
	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/model"
)

func TestJWTManager(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Hour)

	t.Run("UserToken_Roundtrip", func(t *testing.T) {
		token, err := manager.GenerateUserToken(&model.User{
			ID:    "user::1",
			Email: "asha@example.com",
		})
		require.NoError(t, err)

		claims, err := manager.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user::1", claims.UserID)
		assert.Equal(t, "asha@example.com", claims.Email)
		assert.Equal(t, auth.ScopeSystem, claims.Scope)
		assert.Empty(t, claims.InstitutionID)
		assert.Equal(t, "user::1", claims.Subject)
	})

	t.Run("InstitutionUserToken_Roundtrip", func(t *testing.T) {
		token, err := manager.GenerateInstitutionUserToken(&model.InstitutionUser{
			ID:            "inst-user::1",
			Email:         "ravi@crestwood.edu",
			InstitutionID: "inst::1",
		})
		require.NoError(t, err)

		claims, err := manager.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, auth.ScopeInstitution, claims.Scope)
		assert.Equal(t, "inst::1", claims.InstitutionID)
	})

	t.Run("VerifyToken_Failure_Expired", func(t *testing.T) {
		expired := auth.NewJWTManager("test-secret", -time.Minute)
		token, err := expired.GenerateUserToken(&model.User{ID: "user::1"})
		require.NoError(t, err)

		_, err = manager.VerifyToken(token)
		assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
	})

	t.Run("VerifyToken_Failure_WrongKey", func(t *testing.T) {
		other := auth.NewJWTManager("other-secret", time.Hour)
		token, err := other.GenerateUserToken(&model.User{ID: "user::1"})
		require.NoError(t, err)

		_, err = manager.VerifyToken(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("VerifyToken_Failure_Garbage", func(t *testing.T) {
		_, err := manager.VerifyToken("not.a.token")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
