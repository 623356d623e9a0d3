// controller/auth_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusmesh/campus/api/authz"
	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/service"
	"github.com/campusmesh/campus/api/util"
)

type AuthController struct {
	authService service.IAuthService
}

func NewAuthController(authService service.IAuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRoutes registers the login endpoints. Both are public; the issued
// token is what later requests authenticate with.
func (ac *AuthController) RegisterRoutes(r *authz.Router) {
	auth := r.Group("/auth")
	auth.Public("POST", "/login", ac.Login)
	auth.Public("POST", "/institution-login", ac.InstitutionLogin)
}

// Login endpoint for system users
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid login data", err)
		return
	}

	result, err := ac.authService.Login(c, req.Email, req.Password)
	if err != nil {
		switch err {
		case apperrors.ErrInvalidCredentials:
			util.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password", err)
		case apperrors.ErrPrincipalInactive:
			util.RespondWithError(c, http.StatusForbidden, "Account is deactivated", err)
		case apperrors.ErrNotSuperAdmin:
			util.RespondWithError(c, http.StatusForbidden, "Super admin privileges required", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to log in", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// InstitutionLogin endpoint for institution users
func (ac *AuthController) InstitutionLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid login data", err)
		return
	}

	result, err := ac.authService.InstitutionLogin(c, req.Email, req.Password)
	if err != nil {
		switch err {
		case apperrors.ErrInvalidCredentials:
			util.RespondWithError(c, http.StatusUnauthorized, "Invalid email or password", err)
		case apperrors.ErrPrincipalInactive:
			util.RespondWithError(c, http.StatusForbidden, "Account is deactivated", err)
		case apperrors.ErrInstitutionInactive:
			util.RespondWithError(c, http.StatusForbidden, "Institution is not active", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to log in", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
