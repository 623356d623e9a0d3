// authz/context.go
package authz

import (
	"github.com/gin-gonic/gin"

	"github.com/campusmesh/campus/api/model"
)

const (
	userContextKey            = "user"
	institutionUserContextKey = "institutionUser"
)

// SetCurrentUser attaches a global principal to the request context.
func SetCurrentUser(c *gin.Context, user *model.User) {
	c.Set(userContextKey, user)
}

// CurrentUser returns the global principal for the request, or nil when the
// request carries none.
func CurrentUser(c *gin.Context) *model.User {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// SetCurrentInstitutionUser attaches an institution principal to the
// request context.
func SetCurrentInstitutionUser(c *gin.Context, user *model.InstitutionUser) {
	c.Set(institutionUserContextKey, user)
}

// CurrentInstitutionUser returns the institution principal for the request,
// or nil when the request carries none.
func CurrentInstitutionUser(c *gin.Context) *model.InstitutionUser {
	value, exists := c.Get(institutionUserContextKey)
	if !exists {
		return nil
	}
	user, ok := value.(*model.InstitutionUser)
	if !ok {
		return nil
	}
	return user
}
