// controller/institution_controller.go
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

type InstitutionController struct {
	institutionService     service.IInstitutionService
	userService            service.IUserService
	institutionUserService service.IInstitutionUserService
}

func NewInstitutionController(institutionService service.IInstitutionService, userService service.IUserService, institutionUserService service.IInstitutionUserService) *InstitutionController {
	return &InstitutionController{
		institutionService:     institutionService,
		userService:            userService,
		institutionUserService: institutionUserService,
	}
}

type createUserRequest struct {
	FirstName   string   `json:"firstName" binding:"required"`
	LastName    string   `json:"lastName" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	PhoneNumber string   `json:"phoneNumber"`
	Password    string   `json:"password" binding:"required,min=8"`
	RoleIDs     []string `json:"role"`
}

// RegisterRoutes registers the API routes for institutions, the institution
// admin accounts and the institution-scoped users managed under them.
func (ic *InstitutionController) RegisterRoutes(r *authz.Router) {
	institutions := r.Group("/institutions")
	institutions.POST("", ic.CreateInstitution, authz.Policy{Action: model.ActionWrite, Resource: resource.Institution})
	institutions.PUT("/:institutionId", ic.UpdateInstitution, authz.Policy{Action: model.ActionUpdate, Resource: resource.Institution})
	institutions.DELETE("/:institutionId", ic.DeleteInstitution, authz.Policy{Action: model.ActionDelete, Resource: resource.Institution})
	institutions.GET("/:institutionId", ic.GetInstitution, authz.Policy{Action: model.ActionRead, Resource: resource.Institution})
	institutions.GET("", ic.ListInstitutions, authz.Policy{Action: model.ActionRead, Resource: resource.Institution})
	institutions.PUT("/:institutionId/activate", ic.ActivateInstitution, authz.Policy{Action: model.ActionUpdate, Resource: resource.Institution})
	institutions.PUT("/:institutionId/deactivate", ic.DeactivateInstitution, authz.Policy{Action: model.ActionUpdate, Resource: resource.Institution})

	institutions.POST("/:institutionId/admins", ic.CreateInstitutionAdmin, authz.Policy{Action: model.ActionWrite, Resource: resource.Institution})

	users := institutions.Group("/:institutionId/users")
	users.POST("", ic.CreateInstitutionUser, authz.Policy{Action: model.ActionWrite, Resource: resource.InstitutionUser})
	users.PUT("/:userId", ic.UpdateInstitutionUser, authz.Policy{Action: model.ActionUpdate, Resource: resource.InstitutionUser})
	users.DELETE("/:userId", ic.DeleteInstitutionUser, authz.Policy{Action: model.ActionDelete, Resource: resource.InstitutionUser})
	users.GET("/:userId", ic.GetInstitutionUser, authz.Policy{Action: model.ActionRead, Resource: resource.InstitutionUser})
	users.GET("", ic.ListInstitutionUsers, authz.Policy{Action: model.ActionRead, Resource: resource.InstitutionUser})
	users.PUT("/:userId/activate", ic.ActivateInstitutionUser, authz.Policy{Action: model.ActionUpdate, Resource: resource.InstitutionUser})
	users.PUT("/:userId/deactivate", ic.DeactivateInstitutionUser, authz.Policy{Action: model.ActionUpdate, Resource: resource.InstitutionUser})
}

// CreateInstitution endpoint
func (ic *InstitutionController) CreateInstitution(c *gin.Context) {
	var institution model.Institution
	if err := c.ShouldBindJSON(&institution); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid institution data", err)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", apperrors.ErrUnauthorized)
		return
	}

	created, err := ic.institutionService.CreateInstitution(c, institution, creatorID)
	if err != nil {
		util.RespondWithError(c, http.StatusConflict, "Failed to create institution", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateInstitution endpoint
func (ic *InstitutionController) UpdateInstitution(c *gin.Context) {
	institutionID := c.Param("institutionId")
	var institution model.Institution
	if err := c.ShouldBindJSON(&institution); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid institution data", err)
		return
	}
	institution.ID = institutionID
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updated, err := ic.institutionService.UpdateInstitution(c, institution, updaterID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInstitutionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update institution", err)
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteInstitution endpoint
func (ic *InstitutionController) DeleteInstitution(c *gin.Context) {
	institutionID := c.Param("institutionId")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ic.institutionService.DeleteInstitution(c, institutionID, deleterID); err != nil {
		if errors.Is(err, apperrors.ErrInstitutionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to delete institution", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GetInstitution endpoint
func (ic *InstitutionController) GetInstitution(c *gin.Context) {
	institutionID := c.Param("institutionId")

	institution, err := ic.institutionService.GetInstitution(c, institutionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInstitutionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve institution", err)
		}
		return
	}

	c.JSON(http.StatusOK, institution)
}

// ListInstitutions endpoint
func (ic *InstitutionController) ListInstitutions(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	institutions, err := ic.institutionService.ListInstitutions(c, limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list institutions", err)
		return
	}

	c.JSON(http.StatusOK, institutions)
}

// ActivateInstitution endpoint
func (ic *InstitutionController) ActivateInstitution(c *gin.Context) {
	ic.toggleInstitution(c, true)
}

// DeactivateInstitution endpoint
func (ic *InstitutionController) DeactivateInstitution(c *gin.Context) {
	ic.toggleInstitution(c, false)
}

func (ic *InstitutionController) toggleInstitution(c *gin.Context, active bool) {
	institutionID := c.Param("institutionId")
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if active {
		err = ic.institutionService.ActivateInstitution(c, institutionID, updaterID)
	} else {
		err = ic.institutionService.DeactivateInstitution(c, institutionID, updaterID)
	}
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInstitutionNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
		case errors.Is(err, apperrors.ErrInstitutionAlreadyActive):
			util.RespondWithError(c, http.StatusBadRequest, "Institution is already active", err)
		case errors.Is(err, apperrors.ErrInstitutionAlreadyInactive):
			util.RespondWithError(c, http.StatusBadRequest, "Institution is already inactive", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to update institution", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateInstitutionAdmin creates a system user bound to one institution.
func (ic *InstitutionController) CreateInstitutionAdmin(c *gin.Context) {
	institutionID := c.Param("institutionId")
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	user := model.User{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		RoleIDs:       req.RoleIDs,
		InstitutionID: institutionID,
	}

	created, err := ic.userService.CreateUser(c, user, req.Password, creatorID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInstitutionNotFound):
			util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
		case errors.Is(err, apperrors.ErrEmailConflict):
			util.RespondWithError(c, http.StatusConflict, "User with this email already exists", err)
		case errors.Is(err, apperrors.ErrPhoneConflict):
			util.RespondWithError(c, http.StatusConflict, "User with this phone number already exists", err)
		case errors.Is(err, apperrors.ErrRoleNotFound):
			util.RespondWithError(c, http.StatusBadRequest, "Referenced role not found", err)
		case errors.Is(err, apperrors.ErrInvalidUserData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to create institution admin", err)
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// CreateInstitutionUser endpoint
func (ic *InstitutionController) CreateInstitutionUser(c *gin.Context) {
	institutionID := c.Param("institutionId")
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	creatorID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	user := model.InstitutionUser{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		RoleIDs:       req.RoleIDs,
		InstitutionID: institutionID,
	}

	created, err := ic.institutionUserService.CreateUser(c, user, req.Password, creatorID)
	if err != nil {
		ic.respondInstitutionUserError(c, err, "Failed to create institution user")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateInstitutionUser endpoint
func (ic *InstitutionController) UpdateInstitutionUser(c *gin.Context) {
	institutionID := c.Param("institutionId")
	userID := c.Param("userId")
	var user model.InstitutionUser
	if err := c.ShouldBindJSON(&user); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	user.ID = userID
	user.InstitutionID = institutionID
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	updated, err := ic.institutionUserService.UpdateUser(c, user, updaterID)
	if err != nil {
		ic.respondInstitutionUserError(c, err, "Failed to update institution user")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteInstitutionUser endpoint
func (ic *InstitutionController) DeleteInstitutionUser(c *gin.Context) {
	institutionID := c.Param("institutionId")
	userID := c.Param("userId")
	deleterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := ic.institutionUserService.DeleteUser(c, institutionID, userID, deleterID); err != nil {
		ic.respondInstitutionUserError(c, err, "Failed to delete institution user")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetInstitutionUser endpoint
func (ic *InstitutionController) GetInstitutionUser(c *gin.Context) {
	institutionID := c.Param("institutionId")
	userID := c.Param("userId")

	user, err := ic.institutionUserService.GetUser(c, institutionID, userID)
	if err != nil {
		ic.respondInstitutionUserError(c, err, "Failed to retrieve institution user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListInstitutionUsers endpoint
func (ic *InstitutionController) ListInstitutionUsers(c *gin.Context) {
	institutionID := c.Param("institutionId")
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	users, err := ic.institutionUserService.ListUsers(c, institutionID, limit, offset)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list institution users", err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// ActivateInstitutionUser endpoint
func (ic *InstitutionController) ActivateInstitutionUser(c *gin.Context) {
	ic.toggleInstitutionUser(c, true)
}

// DeactivateInstitutionUser endpoint
func (ic *InstitutionController) DeactivateInstitutionUser(c *gin.Context) {
	ic.toggleInstitutionUser(c, false)
}

func (ic *InstitutionController) toggleInstitutionUser(c *gin.Context, active bool) {
	institutionID := c.Param("institutionId")
	userID := c.Param("userId")
	updaterID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if active {
		err = ic.institutionUserService.ActivateUser(c, institutionID, userID, updaterID)
	} else {
		err = ic.institutionUserService.DeactivateUser(c, institutionID, userID, updaterID)
	}
	if err != nil {
		ic.respondInstitutionUserError(c, err, "Failed to update institution user")
		return
	}

	c.Status(http.StatusNoContent)
}

func (ic *InstitutionController) respondInstitutionUserError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Institution user not found", err)
	case errors.Is(err, apperrors.ErrInstitutionNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Institution not found", err)
	case errors.Is(err, apperrors.ErrInstitutionInactive):
		util.RespondWithError(c, http.StatusBadRequest, "Institution is not active", err)
	case errors.Is(err, apperrors.ErrEmailConflict):
		util.RespondWithError(c, http.StatusConflict, "User with this email already exists", err)
	case errors.Is(err, apperrors.ErrPhoneConflict):
		util.RespondWithError(c, http.StatusConflict, "User with this phone number already exists", err)
	case errors.Is(err, apperrors.ErrRoleNotInInstitution):
		util.RespondWithError(c, http.StatusBadRequest, "Role does not belong to this institution", err)
	case errors.Is(err, apperrors.ErrUserAlreadyActive):
		util.RespondWithError(c, http.StatusBadRequest, "User is already active", err)
	case errors.Is(err, apperrors.ErrUserAlreadyInactive):
		util.RespondWithError(c, http.StatusBadRequest, "User is already inactive", err)
	case errors.Is(err, apperrors.ErrInvalidUserData):
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}
