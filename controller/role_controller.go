// controller/role_controller.go
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

type RoleController struct {
	roleService service.IRoleService
}

func NewRoleController(roleService service.IRoleService) *RoleController {
	return &RoleController{
		roleService: roleService,
	}
}

// RegisterRoutes registers the API routes for global roles. Like the
// permission catalog, role administration is policed with the Institution
// resource.
func (rc *RoleController) RegisterRoutes(r *authz.Router) {
	roles := r.Group("/roles")
	roles.POST("", rc.CreateRole, authz.Policy{Action: model.ActionWrite, Resource: resource.Institution})
	roles.PUT("/:id", rc.UpdateRole, authz.Policy{Action: model.ActionUpdate, Resource: resource.Institution})
	roles.DELETE("/:id", rc.DeleteRole, authz.Policy{Action: model.ActionDelete, Resource: resource.Institution})
	roles.GET("/:id", rc.GetRole, authz.Policy{Action: model.ActionRead, Resource: resource.Institution})
	roles.GET("", rc.ListRoles, authz.Policy{Action: model.ActionRead, Resource: resource.Institution})
}

// CreateRole endpoint
func (rc *RoleController) CreateRole(c *gin.Context) {
	var role model.Role
	if err := c.ShouldBindJSON(&role); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", apperrors.ErrInvalidRoleData)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", apperrors.ErrUnauthorized)
		return
	}

	createdRole, err := rc.roleService.CreateRole(c, role, creatorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRoleConflict):
			util.RespondWithError(c, http.StatusConflict, "Role already exists", err)
		case errors.Is(err, apperrors.ErrPermissionNotFound):
			util.RespondWithError(c, http.StatusBadRequest, "Referenced permission not found", err)
		case errors.Is(err, apperrors.ErrInvalidRoleData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to create role", err)
		}
		return
	}

	c.JSON(http.StatusCreated, createdRole)
}

// UpdateRole endpoint
func (rc *RoleController) UpdateRole(c *gin.Context) {
	roleID := c.Param("id")
	var role model.Role
	if err := c.ShouldBindJSON(&role); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", err)
		return
	}
	role.ID = roleID
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updatedRole, err := rc.roleService.UpdateRole(c, role, updaterID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRoleNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Role not found", err)
		case errors.Is(err, apperrors.ErrRoleConflict):
			util.RespondWithError(c, http.StatusConflict, "Role already exists", err)
		case errors.Is(err, apperrors.ErrPermissionNotFound):
			util.RespondWithError(c, http.StatusBadRequest, "Referenced permission not found", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update role", err)
		}
		return
	}

	c.JSON(http.StatusOK, updatedRole)
}

// DeleteRole endpoint
func (rc *RoleController) DeleteRole(c *gin.Context) {
	roleID := c.Param("id")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := rc.roleService.DeleteRole(c, roleID, deleterID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRoleNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Role not found", err)
		case errors.Is(err, apperrors.ErrRoleAssignedToUsers):
			util.RespondWithError(c, http.StatusBadRequest, "Role is still assigned to users", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to delete role", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRole endpoint
func (rc *RoleController) GetRole(c *gin.Context) {
	roleID := c.Param("id")

	role, err := rc.roleService.GetRole(c, roleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRoleNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Role not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve role", err)
		}
		return
	}

	c.JSON(http.StatusOK, role)
}

// ListRoles endpoint
func (rc *RoleController) ListRoles(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	roles, err := rc.roleService.ListRoles(c, limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list roles", err)
		return
	}

	c.JSON(http.StatusOK, roles)
}
