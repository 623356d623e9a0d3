// authz/guard.go
package authz

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/util"
)

// SystemGuard enforces declared route policies against global principals.
// Routes the registry marks public, and routes with no declared policies,
// pass through untouched.
type SystemGuard struct {
	registry *Registry
	factory  *SystemAbilityFactory
}

func NewSystemGuard(registry *Registry, factory *SystemAbilityFactory) *SystemGuard {
	return &SystemGuard{registry: registry, factory: factory}
}

func (g *SystemGuard) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		policies, public := g.registry.Lookup(c.Request.Method, c.FullPath())
		if public || len(policies) == 0 {
			c.Next()
			return
		}

		user := CurrentUser(c)
		if user == nil {
			util.AbortWithError(c, http.StatusUnauthorized, "Unauthorized", apperrors.ErrPrincipalMissing)
			return
		}

		ability := g.factory.AbilityForUser(c.Request.Context(), user)
		for _, policy := range policies {
			if !ability.Can(policy.Action, policy.Resource) {
				util.AbortWithError(c, http.StatusForbidden, deniedMessage(policy), apperrors.ErrForbidden)
				return
			}
		}
		c.Next()
	}
}

// InstitutionGuard enforces declared route policies against institution
// principals. Principals whose account is inactive are rejected before any
// capability check.
type InstitutionGuard struct {
	registry *Registry
	factory  *InstitutionAbilityFactory
}

func NewInstitutionGuard(registry *Registry, factory *InstitutionAbilityFactory) *InstitutionGuard {
	return &InstitutionGuard{registry: registry, factory: factory}
}

func (g *InstitutionGuard) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		policies, public := g.registry.Lookup(c.Request.Method, c.FullPath())
		if public || len(policies) == 0 {
			c.Next()
			return
		}

		user := CurrentInstitutionUser(c)
		if user == nil {
			util.AbortWithError(c, http.StatusUnauthorized, "Unauthorized", apperrors.ErrPrincipalMissing)
			return
		}
		if !user.IsActive {
			util.AbortWithError(c, http.StatusForbidden, "Forbidden", apperrors.ErrPrincipalInactive)
			return
		}

		ability := g.factory.AbilityForUser(c.Request.Context(), user)
		for _, policy := range policies {
			if !ability.Can(policy.Action, policy.Resource) {
				util.AbortWithError(c, http.StatusForbidden, deniedMessage(policy), apperrors.ErrForbidden)
				return
			}
		}
		c.Next()
	}
}

func deniedMessage(policy Policy) string {
	return fmt.Sprintf("You are not authorized to perform %s action on %s.", policy.Action, policy.Resource)
}
