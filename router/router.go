// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusmesh/campus/api/auth"
	"github.com/campusmesh/campus/api/authz"
	"github.com/campusmesh/campus/api/controller"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/middleware"
	"github.com/campusmesh/campus/api/service"
)

// SetupRouter assembles the gin engine: ambient middleware, the policy
// registry, and three route groups. The login routes are public; the system
// group authenticates system users and enforces with the system guard; the
// institution group authenticates institution users and enforces with the
// institution guard.
func SetupRouter(
	controllers *controller.Controllers,
	services *service.Services,
	jwtManager *auth.JWTManager,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	registry := authz.NewRegistry()

	systemFactory := authz.NewSystemAbilityFactory(services.RoleDAO)
	institutionFactory := authz.NewInstitutionAbilityFactory(services.InstitutionRoleDAO)
	systemGuard := authz.NewSystemGuard(registry, systemFactory)
	institutionGuard := authz.NewInstitutionGuard(registry, institutionFactory)

	api := router.Group("/api/v1")

	public := authz.NewRouter(api, registry)
	controllers.Auth.RegisterRoutes(public)

	system := authz.NewRouter(
		api.Group("", middleware.Authentication(jwtManager, services.UserDAO), systemGuard.Enforce()),
		registry,
	)
	controllers.Permission.RegisterRoutes(system)
	controllers.Role.RegisterRoutes(system)
	controllers.Institution.RegisterRoutes(system)
	controllers.Academic.RegisterRoutes(system)

	institution := authz.NewRouter(
		api.Group("", middleware.InstitutionAuthentication(jwtManager, services.InstitutionUserDAO), institutionGuard.Enforce()),
		registry,
	)
	controllers.InstitutionRole.RegisterRoutes(institution)

	logger.Info("Router initialized")
	return router
}
