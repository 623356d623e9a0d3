// service/institution_role_service_test.go
package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/service"
	"github.com/campusmesh/campus/api/util"
)

type fakeInstitutionRoleRepo struct {
	roles       map[string]*model.InstitutionRole
	nameTaken   bool
	userCount   int64
	setActive   []bool
	softDeleted []string
	created     []model.InstitutionRole
}

func newFakeInstitutionRoleRepo() *fakeInstitutionRoleRepo {
	return &fakeInstitutionRoleRepo{roles: make(map[string]*model.InstitutionRole)}
}

func (f *fakeInstitutionRoleRepo) CreateRole(ctx context.Context, role model.InstitutionRole) (string, error) {
	role.ID = "inst-role::created"
	f.created = append(f.created, role)
	f.roles[role.ID] = &role
	return role.ID, nil
}

func (f *fakeInstitutionRoleRepo) UpdateRole(ctx context.Context, role model.InstitutionRole) (*model.InstitutionRole, error) {
	f.roles[role.ID] = &role
	return &role, nil
}

func (f *fakeInstitutionRoleRepo) SetActive(ctx context.Context, institutionID, roleID string, active bool) error {
	f.setActive = append(f.setActive, active)
	return nil
}

func (f *fakeInstitutionRoleRepo) SoftDeleteRole(ctx context.Context, institutionID, roleID string) error {
	f.softDeleted = append(f.softDeleted, roleID)
	return nil
}

func (f *fakeInstitutionRoleRepo) GetRoleInInstitution(ctx context.Context, institutionID, roleID string) (*model.InstitutionRole, error) {
	role, ok := f.roles[roleID]
	if !ok || role.InstitutionID != institutionID {
		return nil, apperrors.ErrInstitutionRoleNotFound
	}
	copied := *role
	return &copied, nil
}

func (f *fakeInstitutionRoleRepo) ListRolesByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionRole, error) {
	var roles []*model.InstitutionRole
	for _, role := range f.roles {
		if role.InstitutionID == institutionID {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (f *fakeInstitutionRoleRepo) ExistsByName(ctx context.Context, institutionID, name string) (bool, error) {
	return f.nameTaken, nil
}

func (f *fakeInstitutionRoleRepo) CountUsersWithRole(ctx context.Context, roleID string) (int64, error) {
	return f.userCount, nil
}

type fakePermissionRepo struct {
	permissions map[string]*model.Permission
}

func newFakePermissionRepo(permissions ...model.Permission) *fakePermissionRepo {
	f := &fakePermissionRepo{permissions: make(map[string]*model.Permission)}
	for i := range permissions {
		f.permissions[permissions[i].ID] = &permissions[i]
	}
	return f
}

func (f *fakePermissionRepo) CreatePermission(ctx context.Context, permission model.Permission) (string, error) {
	f.permissions[permission.ID] = &permission
	return permission.ID, nil
}

func (f *fakePermissionRepo) UpdatePermission(ctx context.Context, permission model.Permission) (*model.Permission, error) {
	f.permissions[permission.ID] = &permission
	return &permission, nil
}

func (f *fakePermissionRepo) DeletePermission(ctx context.Context, permissionID string) error {
	delete(f.permissions, permissionID)
	return nil
}

func (f *fakePermissionRepo) GetPermission(ctx context.Context, permissionID string) (*model.Permission, error) {
	permission, ok := f.permissions[permissionID]
	if !ok {
		return nil, apperrors.ErrPermissionNotFound
	}
	return permission, nil
}

func (f *fakePermissionRepo) GetPermissionBySlug(ctx context.Context, slug string) (*model.Permission, error) {
	for _, permission := range f.permissions {
		if permission.Slug == slug {
			return permission, nil
		}
	}
	return nil, apperrors.ErrPermissionNotFound
}

func (f *fakePermissionRepo) GetPermissionsByIDs(ctx context.Context, permissionIDs []string) ([]model.Permission, error) {
	var found []model.Permission
	for _, id := range permissionIDs {
		if permission, ok := f.permissions[id]; ok {
			found = append(found, *permission)
		}
	}
	return found, nil
}

func (f *fakePermissionRepo) ListPermissions(ctx context.Context, limit, offset int) ([]*model.Permission, error) {
	var permissions []*model.Permission
	for _, permission := range f.permissions {
		permissions = append(permissions, permission)
	}
	return permissions, nil
}

func newInstitutionRoleService(roleRepo *fakeInstitutionRoleRepo, permissionRepo *fakePermissionRepo, institutionActive bool) *service.InstitutionRoleService {
	return service.NewInstitutionRoleService(
		roleRepo,
		permissionRepo,
		newFakeInstitutionRepo(model.Institution{
			ID:        "inst::1",
			Name:      "Crestwood College",
			Type:      model.InstitutionTypeCollege,
			Auditable: model.Auditable{IsActive: institutionActive},
		}),
		util.NewValidationUtil(),
		util.NewCacheService(),
		util.NewNotificationService(),
		util.NewEventBus(),
	)
}

func TestInstitutionRoleService(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateRole_Success", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		permissionRepo := newFakePermissionRepo(model.Permission{ID: "perm::1", Slug: "academic:read"})
		svc := newInstitutionRoleService(roleRepo, permissionRepo, true)

		created, err := svc.CreateRole(ctx, model.InstitutionRole{
			Name:          "Registrar",
			InstitutionID: "inst::1",
			PermissionIDs: []string{"perm::1"},
		}, "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, "inst-role::created", created.ID)
		assert.True(t, created.IsActive)
		assert.Equal(t, "user::admin", created.CreatedBy)
	})

	t.Run("CreateRole_Failure_InactiveInstitution", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), false)

		_, err := svc.CreateRole(ctx, model.InstitutionRole{Name: "Registrar", InstitutionID: "inst::1"}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrInstitutionInactive)
		assert.Empty(t, roleRepo.created)
	})

	t.Run("CreateRole_Failure_UnknownInstitution", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		_, err := svc.CreateRole(ctx, model.InstitutionRole{Name: "Registrar", InstitutionID: "inst::other"}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrInstitutionNotFound)
		assert.Empty(t, roleRepo.created)
	})

	t.Run("CreateRole_Failure_NameConflict", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.nameTaken = true
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		_, err := svc.CreateRole(ctx, model.InstitutionRole{Name: "Registrar", InstitutionID: "inst::1"}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrInstitutionRoleConflict)
		assert.Empty(t, roleRepo.created)
	})

	t.Run("CreateRole_Failure_UnknownPermission", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		_, err := svc.CreateRole(ctx, model.InstitutionRole{
			Name:          "Registrar",
			InstitutionID: "inst::1",
			PermissionIDs: []string{"perm::missing"},
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrPermissionNotFound)
		assert.Empty(t, roleRepo.created)
	})

	t.Run("ActivateRole_Failure_AlreadyActive", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.roles["inst-role::1"] = &model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Registrar",
			InstitutionID: "inst::1",
			Auditable:     model.Auditable{IsActive: true},
		}
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		err := svc.ActivateRole(ctx, "inst::1", "inst-role::1", "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrRoleAlreadyActive)
		assert.Empty(t, roleRepo.setActive)
	})

	t.Run("DeactivateRole_Failure_AlreadyInactive", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.roles["inst-role::1"] = &model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Registrar",
			InstitutionID: "inst::1",
		}
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		err := svc.DeactivateRole(ctx, "inst::1", "inst-role::1", "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrRoleAlreadyInactive)
		assert.Empty(t, roleRepo.setActive)
	})

	t.Run("DeactivateRole_Success", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.roles["inst-role::1"] = &model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Registrar",
			InstitutionID: "inst::1",
			Auditable:     model.Auditable{IsActive: true},
		}
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		err := svc.DeactivateRole(ctx, "inst::1", "inst-role::1", "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, []bool{false}, roleRepo.setActive)
	})

	t.Run("DeleteRole_Failure_AssignedToUsers", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.roles["inst-role::1"] = &model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Registrar",
			InstitutionID: "inst::1",
			Auditable:     model.Auditable{IsActive: true},
		}
		roleRepo.userCount = 3
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		err := svc.DeleteRole(ctx, "inst::1", "inst-role::1", "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrRoleAssignedToUsers)
		assert.Empty(t, roleRepo.softDeleted)
	})

	t.Run("DeleteRole_Success", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.roles["inst-role::1"] = &model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Registrar",
			InstitutionID: "inst::1",
			Auditable:     model.Auditable{IsActive: true},
		}
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		err := svc.DeleteRole(ctx, "inst::1", "inst-role::1", "user::admin")

		assert.NoError(t, err)
		assert.Equal(t, []string{"inst-role::1"}, roleRepo.softDeleted)
	})

	t.Run("UpdateRole_Failure_RenameConflict", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.roles["inst-role::1"] = &model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Registrar",
			InstitutionID: "inst::1",
			Auditable:     model.Auditable{IsActive: true, CreatedAt: time.Now()},
		}
		roleRepo.nameTaken = true
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		_, err := svc.UpdateRole(ctx, model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Bursar",
			InstitutionID: "inst::1",
		}, "user::admin")

		assert.ErrorIs(t, err, apperrors.ErrInstitutionRoleConflict)
	})

	t.Run("GetRole_Failure_WrongInstitution", func(t *testing.T) {
		roleRepo := newFakeInstitutionRoleRepo()
		roleRepo.roles["inst-role::1"] = &model.InstitutionRole{
			ID:            "inst-role::1",
			Name:          "Registrar",
			InstitutionID: "inst::1",
			Auditable:     model.Auditable{IsActive: true},
		}
		svc := newInstitutionRoleService(roleRepo, newFakePermissionRepo(), true)

		_, err := svc.GetRole(ctx, "inst::other", "inst-role::1")

		assert.ErrorIs(t, err, apperrors.ErrInstitutionRoleNotFound)
	})
}
