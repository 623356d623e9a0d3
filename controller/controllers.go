// controller/controllers.go
package controller

import "github.com/campusmesh/campus/api/service"

type Controllers struct {
	Auth            *AuthController
	Permission      *PermissionController
	Role            *RoleController
	Institution     *InstitutionController
	InstitutionRole *InstitutionRoleController
	Academic        *AcademicController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Auth:            NewAuthController(services.AuthService),
		Permission:      NewPermissionController(services.PermissionService),
		Role:            NewRoleController(services.RoleService),
		Institution:     NewInstitutionController(services.InstitutionService, services.UserService, services.InstitutionUserService),
		InstitutionRole: NewInstitutionRoleController(services.InstitutionRoleService),
		Academic:        NewAcademicController(services.AcademicService),
	}
}
