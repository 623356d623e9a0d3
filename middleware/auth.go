// middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/auth"
	"github.com/campusmesh/campus/api/authz"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
)

// UserLoader resolves a global principal by ID, role IDs included.
type UserLoader interface {
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
}

// InstitutionUserLoader resolves an institution principal by ID, role IDs
// included.
type InstitutionUserLoader interface {
	GetInstitutionUserByID(ctx context.Context, userID string) (*model.InstitutionUser, error)
}

// Authentication attaches the global principal named by the request's
// bearer token, when one is present and valid. It never rejects: requests
// without a usable principal continue anonymously and the guards decide
// whether that is acceptable for the route.
func Authentication(jwtManager *auth.JWTManager, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := verifiedClaims(c, jwtManager)
		if claims == nil || claims.Scope != auth.ScopeSystem {
			c.Next()
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Warn("Failed to load authenticated user",
				zap.String("userID", claims.UserID),
				zap.Error(err))
			c.Next()
			return
		}

		authz.SetCurrentUser(c, user)
		c.Set("requestingUserID", user.ID)
		c.Next()
	}
}

// InstitutionAuthentication attaches the institution principal named by the
// request's bearer token, when one is present and valid.
func InstitutionAuthentication(jwtManager *auth.JWTManager, users InstitutionUserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := verifiedClaims(c, jwtManager)
		if claims == nil || claims.Scope != auth.ScopeInstitution {
			c.Next()
			return
		}

		user, err := users.GetInstitutionUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logger.Warn("Failed to load authenticated institution user",
				zap.String("userID", claims.UserID),
				zap.Error(err))
			c.Next()
			return
		}

		authz.SetCurrentInstitutionUser(c, user)
		c.Set("requestingUserID", user.ID)
		c.Next()
	}
}

func verifiedClaims(c *gin.Context, jwtManager *auth.JWTManager) *auth.Claims {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil
	}

	claims, err := jwtManager.VerifyToken(tokenString)
	if err != nil {
		logger.Warn("Rejected bearer token", zap.Error(err))
		return nil
	}
	return claims
}
