// controller/permission_controller_test.go
package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/authz"
	"github.com/campusmesh/campus/api/controller"
	apperrors "github.com/campusmesh/campus/api/errors"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
)

type stubPermissionService struct {
	createFn func(ctx context.Context, permission model.Permission, creatorID string) (*model.Permission, error)
	updateFn func(ctx context.Context, permission model.Permission, updaterID string) (*model.Permission, error)
	deleteFn func(ctx context.Context, permissionID, deleterID string) error
	getFn    func(ctx context.Context, permissionID string) (*model.Permission, error)
	listFn   func(ctx context.Context, limit, offset int) ([]*model.Permission, error)
}

func (s *stubPermissionService) CreatePermission(ctx context.Context, permission model.Permission, creatorID string) (*model.Permission, error) {
	return s.createFn(ctx, permission, creatorID)
}

func (s *stubPermissionService) UpdatePermission(ctx context.Context, permission model.Permission, updaterID string) (*model.Permission, error) {
	return s.updateFn(ctx, permission, updaterID)
}

func (s *stubPermissionService) DeletePermission(ctx context.Context, permissionID, deleterID string) error {
	return s.deleteFn(ctx, permissionID, deleterID)
}

func (s *stubPermissionService) GetPermission(ctx context.Context, permissionID string) (*model.Permission, error) {
	return s.getFn(ctx, permissionID)
}

func (s *stubPermissionService) ListPermissions(ctx context.Context, limit, offset int) ([]*model.Permission, error) {
	return s.listFn(ctx, limit, offset)
}

func setupPermissionRouter(svc *stubPermissionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("requestingUserID", "user::tester")
		c.Next()
	})

	r := authz.NewRouter(engine.Group("/"), authz.NewRegistry())
	controller.NewPermissionController(svc).RegisterRoutes(r)
	return engine
}

func TestPermissionController(t *testing.T) {
	logger.Log = zap.NewNop()

	t.Run("CreatePermission_Success", func(t *testing.T) {
		svc := &stubPermissionService{
			createFn: func(ctx context.Context, permission model.Permission, creatorID string) (*model.Permission, error) {
				assert.Equal(t, "user::tester", creatorID)
				permission.ID = "perm::1"
				permission.Slug = model.ResolveSlug(permission.Resource, permission.Action)
				return &permission, nil
			},
		}
		router := setupPermissionRouter(svc)

		body := strings.NewReader(`{"action":"READ","resource":"Academic"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/permissions", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"academic:read"`)
	})

	t.Run("CreatePermission_Failure_Conflict", func(t *testing.T) {
		svc := &stubPermissionService{
			createFn: func(ctx context.Context, permission model.Permission, creatorID string) (*model.Permission, error) {
				return nil, apperrors.ErrPermissionConflict
			},
		}
		router := setupPermissionRouter(svc)

		body := strings.NewReader(`{"action":"READ","resource":"Academic"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/permissions", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("CreatePermission_Failure_MissingAction", func(t *testing.T) {
		router := setupPermissionRouter(&stubPermissionService{})

		body := strings.NewReader(`{"resource":"Academic"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/permissions", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetPermission_Failure_NotFound", func(t *testing.T) {
		svc := &stubPermissionService{
			getFn: func(ctx context.Context, permissionID string) (*model.Permission, error) {
				return nil, apperrors.ErrPermissionNotFound
			},
		}
		router := setupPermissionRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/permissions/perm::missing", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("DeletePermission_Success", func(t *testing.T) {
		svc := &stubPermissionService{
			deleteFn: func(ctx context.Context, permissionID, deleterID string) error {
				return nil
			},
		}
		router := setupPermissionRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/permissions/perm::1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("ListPermissions_Success", func(t *testing.T) {
		svc := &stubPermissionService{
			listFn: func(ctx context.Context, limit, offset int) ([]*model.Permission, error) {
				return []*model.Permission{
					{ID: "perm::1", Slug: "academic:read"},
					{ID: "perm::2", Slug: "academic:write"},
				}, nil
			},
		}
		router := setupPermissionRouter(svc)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/permissions", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "academic:write")
	})
}
