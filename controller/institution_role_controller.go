// controller/institution_role_controller.go
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

type InstitutionRoleController struct {
	roleService service.IInstitutionRoleService
}

func NewInstitutionRoleController(roleService service.IInstitutionRoleService) *InstitutionRoleController {
	return &InstitutionRoleController{
		roleService: roleService,
	}
}

// RegisterRoutes registers the institution-scoped role routes. The group is
// expected to sit behind the institution guard, so every grant evaluated
// here carries the caller's own institution condition.
func (rc *InstitutionRoleController) RegisterRoutes(r *authz.Router) {
	roles := r.Group("/institutions/:institutionId/roles")
	roles.POST("", rc.CreateRole, authz.Policy{Action: model.ActionWrite, Resource: resource.InstitutionRole})
	roles.PUT("/:roleId", rc.UpdateRole, authz.Policy{Action: model.ActionUpdate, Resource: resource.InstitutionRole})
	roles.DELETE("/:roleId", rc.DeleteRole, authz.Policy{Action: model.ActionDelete, Resource: resource.InstitutionRole})
	roles.GET("/:roleId", rc.GetRole, authz.Policy{Action: model.ActionRead, Resource: resource.InstitutionRole})
	roles.GET("", rc.ListRoles, authz.Policy{Action: model.ActionRead, Resource: resource.InstitutionRole})
	roles.PUT("/:roleId/activate", rc.ActivateRole, authz.Policy{Action: model.ActionUpdate, Resource: resource.InstitutionRole})
	roles.PUT("/:roleId/deactivate", rc.DeactivateRole, authz.Policy{Action: model.ActionUpdate, Resource: resource.InstitutionRole})
}

// CreateRole endpoint
func (rc *InstitutionRoleController) CreateRole(c *gin.Context) {
	institutionID := c.Param("institutionId")
	var role model.InstitutionRole
	if err := c.ShouldBindJSON(&role); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", apperrors.ErrInvalidRoleData)
		return
	}
	role.InstitutionID = institutionID
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", apperrors.ErrUnauthorized)
		return
	}

	createdRole, err := rc.roleService.CreateRole(c, role, creatorID)
	if err != nil {
		rc.respondRoleError(c, err, "Failed to create institution role")
		return
	}

	c.JSON(http.StatusCreated, createdRole)
}

// UpdateRole endpoint
func (rc *InstitutionRoleController) UpdateRole(c *gin.Context) {
	institutionID := c.Param("institutionId")
	roleID := c.Param("roleId")
	var role model.InstitutionRole
	if err := c.ShouldBindJSON(&role); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", err)
		return
	}
	role.ID = roleID
	role.InstitutionID = institutionID
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updatedRole, err := rc.roleService.UpdateRole(c, role, updaterID)
	if err != nil {
		rc.respondRoleError(c, err, "Failed to update institution role")
		return
	}

	c.JSON(http.StatusOK, updatedRole)
}

// DeleteRole endpoint
func (rc *InstitutionRoleController) DeleteRole(c *gin.Context) {
	institutionID := c.Param("institutionId")
	roleID := c.Param("roleId")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := rc.roleService.DeleteRole(c, institutionID, roleID, deleterID); err != nil {
		rc.respondRoleError(c, err, "Failed to delete institution role")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRole endpoint
func (rc *InstitutionRoleController) GetRole(c *gin.Context) {
	institutionID := c.Param("institutionId")
	roleID := c.Param("roleId")

	role, err := rc.roleService.GetRole(c, institutionID, roleID)
	if err != nil {
		rc.respondRoleError(c, err, "Failed to retrieve institution role")
		return
	}

	c.JSON(http.StatusOK, role)
}

// ListRoles endpoint
func (rc *InstitutionRoleController) ListRoles(c *gin.Context) {
	institutionID := c.Param("institutionId")
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	roles, err := rc.roleService.ListRoles(c, institutionID, limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list institution roles", err)
		return
	}

	c.JSON(http.StatusOK, roles)
}

// ActivateRole endpoint
func (rc *InstitutionRoleController) ActivateRole(c *gin.Context) {
	rc.toggleRole(c, true)
}

// DeactivateRole endpoint
func (rc *InstitutionRoleController) DeactivateRole(c *gin.Context) {
	rc.toggleRole(c, false)
}

func (rc *InstitutionRoleController) toggleRole(c *gin.Context, active bool) {
	institutionID := c.Param("institutionId")
	roleID := c.Param("roleId")
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if active {
		err = rc.roleService.ActivateRole(c, institutionID, roleID, updaterID)
	} else {
		err = rc.roleService.DeactivateRole(c, institutionID, roleID, updaterID)
	}
	if err != nil {
		rc.respondRoleError(c, err, "Failed to update institution role")
		return
	}

	c.Status(http.StatusNoContent)
}

func (rc *InstitutionRoleController) respondRoleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrInstitutionRoleNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Institution role not found", err)
	case errors.Is(err, apperrors.ErrInstitutionNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
	case errors.Is(err, apperrors.ErrInstitutionInactive):
		util.RespondWithError(c, http.StatusBadRequest, "Institution is not active", err)
	case errors.Is(err, apperrors.ErrInstitutionRoleConflict):
		util.RespondWithError(c, http.StatusConflict, "Institution role name already exists", err)
	case errors.Is(err, apperrors.ErrPermissionNotFound):
		util.RespondWithError(c, http.StatusBadRequest, "Referenced permission not found", err)
	case errors.Is(err, apperrors.ErrRoleAlreadyActive):
		util.RespondWithError(c, http.StatusBadRequest, "Institution role is already active", err)
	case errors.Is(err, apperrors.ErrRoleAlreadyInactive):
		util.RespondWithError(c, http.StatusBadRequest, "Institution role is already inactive", err)
	case errors.Is(err, apperrors.ErrRoleAssignedToUsers):
		util.RespondWithError(c, http.StatusBadRequest, "Institution role is still assigned to users", err)
	case errors.Is(err, apperrors.ErrInvalidRoleData):
		util.RespondWithError(c, http.StatusBadRequest, "Invalid role data", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}
