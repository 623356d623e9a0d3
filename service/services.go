// service/services.go
package service

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/campusmesh/campus/api/audit"
	"github.com/campusmesh/campus/api/auth"
	"github.com/campusmesh/campus/api/dao"
	"github.com/campusmesh/campus/api/util"
)

// Services holds all service instances
type Services struct {
	AuthService            IAuthService
	PermissionService      IPermissionService
	RoleService            IRoleService
	InstitutionService     IInstitutionService
	UserService            IUserService
	InstitutionRoleService IInstitutionRoleService
	InstitutionUserService IInstitutionUserService
	AcademicService        IAcademicService

	// DAOs the middleware and guards read principals and roles through.
	UserDAO            *dao.UserDAO
	InstitutionUserDAO *dao.InstitutionUserDAO
	RoleDAO            *dao.RoleDAO
	InstitutionRoleDAO *dao.InstitutionRoleDAO
}

// InitializeServices creates and initializes all services with their dependencies
func InitializeServices(driver neo4j.Driver, auditService audit.Service, jwtManager *auth.JWTManager, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *Services {
	permissionDAO := dao.NewPermissionDAO(driver, auditService)
	roleDAO := dao.NewRoleDAO(driver, auditService)
	institutionDAO := dao.NewInstitutionDAO(driver, auditService)
	userDAO := dao.NewUserDAO(driver, auditService)
	institutionRoleDAO := dao.NewInstitutionRoleDAO(driver, auditService)
	institutionUserDAO := dao.NewInstitutionUserDAO(driver, auditService)
	programDAO := dao.NewAcademicProgramDAO(driver, auditService)
	classDAO := dao.NewAcademicClassDAO(driver, auditService)
	sectionDAO := dao.NewSectionDAO(driver, auditService)
	enrollmentDAO := dao.NewEnrollmentDAO(driver, auditService)

	return &Services{
		AuthService:            NewAuthService(userDAO, institutionUserDAO, institutionDAO, roleDAO, institutionRoleDAO, jwtManager),
		PermissionService:      NewPermissionService(permissionDAO, validationUtil, notificationSvc, eventBus),
		RoleService:            NewRoleService(roleDAO, permissionDAO, validationUtil, notificationSvc, eventBus),
		InstitutionService:     NewInstitutionService(institutionDAO, validationUtil, cacheService, notificationSvc, eventBus),
		UserService:            NewUserService(userDAO, roleDAO, institutionDAO, validationUtil, notificationSvc, eventBus),
		InstitutionRoleService: NewInstitutionRoleService(institutionRoleDAO, permissionDAO, institutionDAO, validationUtil, cacheService, notificationSvc, eventBus),
		InstitutionUserService: NewInstitutionUserService(institutionUserDAO, institutionRoleDAO, institutionDAO, validationUtil, cacheService, notificationSvc, eventBus),
		AcademicService:        NewAcademicService(programDAO, classDAO, sectionDAO, enrollmentDAO, institutionDAO, validationUtil, notificationSvc, eventBus),

		UserDAO:            userDAO,
		InstitutionUserDAO: institutionUserDAO,
		RoleDAO:            roleDAO,
		InstitutionRoleDAO: institutionRoleDAO,
	}
}
