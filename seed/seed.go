// Package seed provisions the baseline records a fresh deployment needs:
// the permission catalog, the Super Admin and Institution Admin roles, and
// the initial super admin account. Every step is idempotent, so seeding can
// run on every startup.
package seed

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/campusmesh/campus/api/audit"
	"github.com/campusmesh/campus/api/dao"
	apperrors "github.com/campusmesh/campus/api/errors"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/resource"
)

var allActions = []model.Action{
	model.ActionRead,
	model.ActionWrite,
	model.ActionUpdate,
	model.ActionDelete,
}

// Options configures the seeded super admin account.
type Options struct {
	AdminEmail    string
	AdminPassword string
}

// Run seeds the catalog, roles and super admin account.
func Run(ctx context.Context, driver neo4j.Driver, auditService audit.Service, opts Options) error {
	permissionDAO := dao.NewPermissionDAO(driver, auditService)
	roleDAO := dao.NewRoleDAO(driver, auditService)
	userDAO := dao.NewUserDAO(driver, auditService)

	slugToID, err := seedPermissions(ctx, permissionDAO)
	if err != nil {
		return err
	}

	superAdminRoleID, err := seedRole(ctx, roleDAO, model.SuperAdminRoleName,
		"Platform administrator with every capability", superAdminSlugs(), slugToID)
	if err != nil {
		return err
	}
	if _, err := seedRole(ctx, roleDAO, model.InstitutionAdminRoleName,
		"Administers a single institution", institutionAdminSlugs(), slugToID); err != nil {
		return err
	}

	if err := seedSuperAdmin(ctx, userDAO, superAdminRoleID, opts); err != nil {
		return err
	}

	logger.Info("Seeding completed")
	return nil
}

// seedPermissions creates every missing catalog entry and returns the full
// slug to id mapping.
func seedPermissions(ctx context.Context, permissionDAO *dao.PermissionDAO) (map[string]string, error) {
	slugToID := make(map[string]string)
	for _, res := range resource.All() {
		for _, action := range allActions {
			slug := model.ResolveSlug(res, action)
			existing, err := permissionDAO.GetPermissionBySlug(ctx, slug)
			if err == nil {
				slugToID[slug] = existing.ID
				continue
			}
			if !errors.Is(err, apperrors.ErrPermissionNotFound) {
				return nil, err
			}

			id, err := permissionDAO.CreatePermission(ctx, model.Permission{
				Resource:  res,
				Action:    action,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
			if err != nil {
				return nil, err
			}
			slugToID[slug] = id
			logger.Info("Seeded permission", zap.String("slug", slug))
		}
	}
	return slugToID, nil
}

func seedRole(ctx context.Context, roleDAO *dao.RoleDAO, name, description string, slugs []string, slugToID map[string]string) (string, error) {
	existing, err := roleDAO.GetRoleByName(ctx, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, apperrors.ErrRoleNotFound) {
		return "", err
	}

	permissionIDs := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if id, ok := slugToID[slug]; ok {
			permissionIDs = append(permissionIDs, id)
		}
	}

	roleID, err := roleDAO.CreateRole(ctx, model.Role{
		Name:          name,
		Description:   description,
		PermissionIDs: permissionIDs,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
	if err != nil {
		return "", err
	}
	logger.Info("Seeded role", zap.String("name", name), zap.Int("permissions", len(permissionIDs)))
	return roleID, nil
}

func seedSuperAdmin(ctx context.Context, userDAO *dao.UserDAO, roleID string, opts Options) error {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		logger.Warn("Super admin credentials not configured, skipping account seed")
		return nil
	}

	exists, err := userDAO.ExistsByEmail(ctx, opts.AdminEmail)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := model.User{
		FirstName: "Super",
		LastName:  "Admin",
		Email:     opts.AdminEmail,
		Password:  string(hashed),
		RoleIDs:   []string{roleID},
	}
	user.IsActive = true
	user.CreatedBy = "system"
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	userID, err := userDAO.CreateUser(ctx, user)
	if err != nil {
		return err
	}
	logger.Info("Seeded super admin account", zap.String("userID", userID), zap.String("email", opts.AdminEmail))
	return nil
}

// superAdminSlugs grants everything in the catalog.
func superAdminSlugs() []string {
	var slugs []string
	for _, res := range resource.All() {
		for _, action := range allActions {
			slugs = append(slugs, model.ResolveSlug(res, action))
		}
	}
	return slugs
}

// institutionAdminSlugs grants full control over tenant-scoped resources
// and read access to the tenant and profile records.
func institutionAdminSlugs() []string {
	slugs := []string{
		model.ResolveSlug(resource.Institution, model.ActionRead),
		model.ResolveSlug(resource.Me, model.ActionRead),
		model.ResolveSlug(resource.Me, model.ActionUpdate),
	}
	for _, res := range []string{resource.InstitutionRole, resource.InstitutionUser, resource.Academic} {
		for _, action := range allActions {
			slugs = append(slugs, model.ResolveSlug(res, action))
		}
	}
	return slugs
}
