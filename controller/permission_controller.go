// controller/permission_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusmesh/campus/api/authz"
	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/resource"
	"github.com/campusmesh/campus/api/service"
	"github.com/campusmesh/campus/api/util"
	helper_util "github.com/campusmesh/campus/api/util/helper"
)

type PermissionController struct {
	permissionService service.IPermissionService
}

func NewPermissionController(permissionService service.IPermissionService) *PermissionController {
	return &PermissionController{
		permissionService: permissionService,
	}
}

// RegisterRoutes registers the API routes for the permission catalog.
// Catalog administration is a platform capability, so the routes are
// policed with the Institution resource.
func (pc *PermissionController) RegisterRoutes(r *authz.Router) {
	permissions := r.Group("/permissions")
	permissions.POST("", pc.CreatePermission, authz.Policy{Action: model.ActionWrite, Resource: resource.Institution})
	permissions.PUT("/:id", pc.UpdatePermission, authz.Policy{Action: model.ActionUpdate, Resource: resource.Institution})
	permissions.DELETE("/:id", pc.DeletePermission, authz.Policy{Action: model.ActionDelete, Resource: resource.Institution})
	permissions.GET("/:id", pc.GetPermission, authz.Policy{Action: model.ActionRead, Resource: resource.Institution})
	permissions.GET("", pc.ListPermissions, authz.Policy{Action: model.ActionRead, Resource: resource.Institution})
}

// CreatePermission endpoint
func (pc *PermissionController) CreatePermission(c *gin.Context) {
	var permission model.Permission
	if err := c.ShouldBindJSON(&permission); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", apperrors.ErrInvalidPermissionData)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", apperrors.ErrUnauthorized)
		return
	}

	createdPermission, err := pc.permissionService.CreatePermission(c, permission, creatorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPermissionConflict):
			util.RespondWithError(c, http.StatusConflict, "Permission already exists", err)
		case errors.Is(err, apperrors.ErrInvalidPermissionData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to create permission", err)
		}
		return
	}

	c.JSON(http.StatusCreated, createdPermission)
}

// UpdatePermission endpoint
func (pc *PermissionController) UpdatePermission(c *gin.Context) {
	permissionID := c.Param("id")
	var permission model.Permission
	if err := c.ShouldBindJSON(&permission); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", err)
		return
	}
	permission.ID = permissionID
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updatedPermission, err := pc.permissionService.UpdatePermission(c, permission, updaterID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPermissionNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Permission not found", err)
		case errors.Is(err, apperrors.ErrPermissionConflict):
			util.RespondWithError(c, http.StatusConflict, "Permission already exists", err)
		case errors.Is(err, apperrors.ErrInvalidPermissionData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid permission data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update permission", err)
		}
		return
	}

	c.JSON(http.StatusOK, updatedPermission)
}

// DeletePermission endpoint
func (pc *PermissionController) DeletePermission(c *gin.Context) {
	permissionID := c.Param("id")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := pc.permissionService.DeletePermission(c, permissionID, deleterID); err != nil {
		if errors.Is(err, apperrors.ErrPermissionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Permission not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to delete permission", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPermission endpoint
func (pc *PermissionController) GetPermission(c *gin.Context) {
	permissionID := c.Param("id")

	permission, err := pc.permissionService.GetPermission(c, permissionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPermissionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Permission not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve permission", err)
		}
		return
	}

	c.JSON(http.StatusOK, permission)
}

// ListPermissions endpoint
func (pc *PermissionController) ListPermissions(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	permissions, err := pc.permissionService.ListPermissions(c, limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list permissions", err)
		return
	}

	c.JSON(http.StatusOK, permissions)
}
