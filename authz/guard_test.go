// authz/guard_test.go
package authz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/resource"
	"github.com/campusmesh/campus/api/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// systemTestServer wires a gin engine with the system guard and a loader
// returning the given roles for every principal.
func systemTestServer(roles []*model.Role, principal *model.User) (*gin.Engine, *Router) {
	engine := gin.New()
	registry := NewRegistry()
	guard := NewSystemGuard(registry, NewSystemAbilityFactory(&fakeSystemRoleLoader{roles: roles}))

	group := engine.Group("/api/v1", func(c *gin.Context) {
		if principal != nil {
			SetCurrentUser(c, principal)
		}
	}, guard.Enforce())

	return engine, NewRouter(group, registry)
}

func institutionTestServer(roles []*model.InstitutionRole, principal *model.InstitutionUser) (*gin.Engine, *Router) {
	engine := gin.New()
	registry := NewRegistry()
	guard := NewInstitutionGuard(registry, NewInstitutionAbilityFactory(&fakeInstitutionRoleLoader{roles: roles}))

	group := engine.Group("/api/v1", func(c *gin.Context) {
		if principal != nil {
			SetCurrentInstitutionUser(c, principal)
		}
	}, guard.Enforce())

	return engine, NewRouter(group, registry)
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func perform(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestSystemGuardPublicRouteBypassesEverything(t *testing.T) {
	engine, router := systemTestServer(nil, nil)
	router.Public("POST", "/login", okHandler)

	w := perform(engine, "POST", "/api/v1/login")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSystemGuardUndeclaredRouteAllows(t *testing.T) {
	engine, router := systemTestServer(nil, nil)
	router.GET("/health", okHandler)

	w := perform(engine, "GET", "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSystemGuardMissingPrincipalIsUnauthorized(t *testing.T) {
	engine, router := systemTestServer(nil, nil)
	router.GET("/institutions", okHandler, Policy{Action: model.ActionRead, Resource: resource.Institution})

	w := perform(engine, "GET", "/api/v1/institutions")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp util.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Unauthorized", resp.Message)
	assert.Equal(t, "/api/v1/institutions", resp.Path)
}

func TestSystemGuardAllowsGrantedPolicy(t *testing.T) {
	roles := []*model.Role{{
		ID:          "role::admin",
		Permissions: []model.Permission{{Action: model.ActionRead, Resource: resource.Institution}},
	}}
	user := &model.User{ID: "user::1", RoleIDs: []string{"role::admin"}}

	engine, router := systemTestServer(roles, user)
	router.GET("/institutions", okHandler, Policy{Action: model.ActionRead, Resource: resource.Institution})

	w := perform(engine, "GET", "/api/v1/institutions")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSystemGuardDeniesWithDetailedMessage(t *testing.T) {
	roles := []*model.Role{{
		ID:          "role::teacher",
		Permissions: []model.Permission{{Action: model.ActionRead, Resource: resource.Academic}},
	}}
	user := &model.User{ID: "user::1", RoleIDs: []string{"role::teacher"}}

	engine, router := systemTestServer(roles, user)
	router.POST("/academic", okHandler, Policy{Action: model.ActionWrite, Resource: resource.Academic})

	w := perform(engine, "POST", "/api/v1/academic")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp util.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You are not authorized to perform WRITE action on Academic.", resp.Message)
}

func TestSystemGuardRequiresEveryDeclaredPolicy(t *testing.T) {
	roles := []*model.Role{{
		ID:          "role::reader",
		Permissions: []model.Permission{{Action: model.ActionRead, Resource: resource.Institution}},
	}}
	user := &model.User{ID: "user::1", RoleIDs: []string{"role::reader"}}

	engine, router := systemTestServer(roles, user)
	router.POST("/institutions/import", okHandler,
		Policy{Action: model.ActionRead, Resource: resource.Institution},
		Policy{Action: model.ActionWrite, Resource: resource.Institution},
	)

	w := perform(engine, "POST", "/api/v1/institutions/import")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp util.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You are not authorized to perform WRITE action on Institution.", resp.Message)
}

func TestInstitutionGuardInactivePrincipalIsForbidden(t *testing.T) {
	user := &model.InstitutionUser{ID: "inst-user::1", InstitutionID: "inst::a", RoleIDs: []string{"inst-role::r"}}
	user.IsActive = false

	engine, router := institutionTestServer(nil, user)
	router.GET("/institutions/:institutionId/roles", okHandler,
		Policy{Action: model.ActionRead, Resource: resource.InstitutionRole})

	w := perform(engine, "GET", "/api/v1/institutions/inst::a/roles")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp util.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Forbidden", resp.Message)
}

func TestInstitutionGuardAllowsActivePrincipalWithGrant(t *testing.T) {
	roles := []*model.InstitutionRole{{
		ID:            "inst-role::admin",
		InstitutionID: "inst::a",
		Permissions:   []model.Permission{{Action: model.ActionRead, Resource: resource.InstitutionRole}},
	}}
	user := &model.InstitutionUser{ID: "inst-user::1", InstitutionID: "inst::a", RoleIDs: []string{"inst-role::admin"}}
	user.IsActive = true

	engine, router := institutionTestServer(roles, user)
	router.GET("/institutions/:institutionId/roles", okHandler,
		Policy{Action: model.ActionRead, Resource: resource.InstitutionRole})

	w := perform(engine, "GET", "/api/v1/institutions/inst::a/roles")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInstitutionGuardDeniesMissingGrant(t *testing.T) {
	roles := []*model.InstitutionRole{{
		ID:            "inst-role::viewer",
		InstitutionID: "inst::a",
		Permissions:   []model.Permission{{Action: model.ActionRead, Resource: resource.InstitutionRole}},
	}}
	user := &model.InstitutionUser{ID: "inst-user::1", InstitutionID: "inst::a", RoleIDs: []string{"inst-role::viewer"}}
	user.IsActive = true

	engine, router := institutionTestServer(roles, user)
	router.DELETE("/institutions/:institutionId/roles/:roleId", okHandler,
		Policy{Action: model.ActionDelete, Resource: resource.InstitutionRole})

	w := perform(engine, "DELETE", "/api/v1/institutions/inst::a/roles/inst-role::viewer")
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp util.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "You are not authorized to perform DELETE action on InstitutionRole.", resp.Message)
}

func TestRegistryLookupUnknownRoute(t *testing.T) {
	registry := NewRegistry()
	policies, public := registry.Lookup("GET", "/never/registered")
	assert.Nil(t, policies)
	assert.False(t, public)
}

func TestRouterRecordsFullPath(t *testing.T) {
	engine := gin.New()
	registry := NewRegistry()
	router := NewRouter(engine.Group("/api/v1"), registry)
	router.GET("/institutions/:institutionId", okHandler,
		Policy{Action: model.ActionRead, Resource: resource.Institution})

	policies, public := registry.Lookup("GET", "/api/v1/institutions/:institutionId")
	assert.False(t, public)
	assert.Len(t, policies, 1)
	assert.Equal(t, model.ActionRead, policies[0].Action)
}
