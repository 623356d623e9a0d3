// service/role_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/dao"
	apperrors "github.com/campusmesh/campus/api/errors"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/util"
)

// RoleRepository is the persistence surface the global role service needs.
type RoleRepository interface {
	CreateRole(ctx context.Context, role model.Role) (string, error)
	UpdateRole(ctx context.Context, role model.Role) (*model.Role, error)
	DeleteRole(ctx context.Context, roleID string) error
	GetRole(ctx context.Context, roleID string) (*model.Role, error)
	ListRoles(ctx context.Context, limit, offset int) ([]*model.Role, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	CountUsersWithRole(ctx context.Context, roleID string) (int64, error)
}

var _ RoleRepository = (*dao.RoleDAO)(nil)

// IRoleService defines the interface for global role operations
type IRoleService interface {
	CreateRole(ctx context.Context, role model.Role, creatorID string) (*model.Role, error)
	UpdateRole(ctx context.Context, role model.Role, updaterID string) (*model.Role, error)
	DeleteRole(ctx context.Context, roleID string, deleterID string) error
	GetRole(ctx context.Context, roleID string) (*model.Role, error)
	ListRoles(ctx context.Context, limit int, offset int) ([]*model.Role, error)
}

// RoleService handles business logic for system-level roles
type RoleService struct {
	roleRepo        RoleRepository
	permissionRepo  PermissionRepository
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IRoleService = &RoleService{}

// NewRoleService creates a new instance of RoleService
func NewRoleService(roleRepo RoleRepository, permissionRepo PermissionRepository, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *RoleService {
	service := &RoleService{
		roleRepo:        roleRepo,
		permissionRepo:  permissionRepo,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("role.created", service.handleRoleChanged("created"))
	eventBus.Subscribe("role.updated", service.handleRoleChanged("updated"))
	eventBus.Subscribe("role.deleted", service.handleRoleChanged("deleted"))

	return service
}

func (s *RoleService) handleRoleChanged(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		role, ok := event.Payload.(model.Role)
		if !ok {
			return nil
		}
		if err := s.notificationSvc.NotifyRoleChange(ctx, changeType, role); err != nil {
			logger.Warn("Failed to send role change notification",
				zap.Error(err),
				zap.String("roleID", role.ID))
		}
		return nil
	}
}

// resolvePermissions verifies every referenced catalog entry exists.
func (s *RoleService) resolvePermissions(ctx context.Context, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	permissions, err := s.permissionRepo.GetPermissionsByIDs(ctx, permissionIDs)
	if err != nil {
		return err
	}
	if len(permissions) != len(permissionIDs) {
		return apperrors.ErrPermissionNotFound
	}
	return nil
}

// CreateRole creates a global role. The name must be unused.
func (s *RoleService) CreateRole(ctx context.Context, role model.Role, creatorID string) (*model.Role, error) {
	if err := s.validationUtil.ValidateRole(role); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRoleData, err)
	}

	exists, err := s.roleRepo.ExistsByName(ctx, role.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrRoleConflict
	}

	if err := s.resolvePermissions(ctx, role.PermissionIDs); err != nil {
		return nil, err
	}

	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()

	roleID, err := s.roleRepo.CreateRole(ctx, role)
	if err != nil {
		logger.Error("Error creating role", zap.Error(err), zap.String("creatorID", creatorID))
		return nil, err
	}

	created, err := s.roleRepo.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, "role.created", *created)

	logger.Info("Role created successfully",
		zap.String("roleID", roleID),
		zap.String("name", role.Name),
		zap.String("creatorID", creatorID))
	return created, nil
}

// UpdateRole rewrites a global role and its permission references.
func (s *RoleService) UpdateRole(ctx context.Context, role model.Role, updaterID string) (*model.Role, error) {
	if err := s.validationUtil.ValidateRole(role); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRoleData, err)
	}

	existing, err := s.roleRepo.GetRole(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	if existing.Name != role.Name {
		taken, err := s.roleRepo.ExistsByName(ctx, role.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrRoleConflict
		}
	}

	if err := s.resolvePermissions(ctx, role.PermissionIDs); err != nil {
		return nil, err
	}

	updatedRole, err := s.roleRepo.UpdateRole(ctx, role)
	if err != nil {
		logger.Error("Error updating role", zap.Error(err), zap.String("roleID", role.ID), zap.String("updaterID", updaterID))
		return nil, err
	}

	s.eventBus.Publish(ctx, "role.updated", *updatedRole)

	logger.Info("Role updated successfully", zap.String("roleID", role.ID), zap.String("updaterID", updaterID))
	return updatedRole, nil
}

// DeleteRole removes a global role. A role still assigned to any user is
// kept.
func (s *RoleService) DeleteRole(ctx context.Context, roleID string, deleterID string) error {
	role, err := s.roleRepo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}

	assigned, err := s.roleRepo.CountUsersWithRole(ctx, roleID)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return apperrors.ErrRoleAssignedToUsers
	}

	if err := s.roleRepo.DeleteRole(ctx, roleID); err != nil {
		logger.Error("Error deleting role", zap.Error(err), zap.String("roleID", roleID), zap.String("deleterID", deleterID))
		return err
	}

	s.eventBus.Publish(ctx, "role.deleted", *role)

	logger.Info("Role deleted successfully", zap.String("roleID", roleID), zap.String("deleterID", deleterID))
	return nil
}

// GetRole retrieves a global role with its permissions populated
func (s *RoleService) GetRole(ctx context.Context, roleID string) (*model.Role, error) {
	role, err := s.roleRepo.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrRoleNotFound) {
			return nil, apperrors.ErrRoleNotFound
		}
		logger.Error("Error retrieving role", zap.Error(err), zap.String("roleID", roleID))
		return nil, apperrors.ErrInternalServer
	}
	return role, nil
}

// ListRoles retrieves global roles with pagination
func (s *RoleService) ListRoles(ctx context.Context, limit int, offset int) ([]*model.Role, error) {
	roles, err := s.roleRepo.ListRoles(ctx, limit, offset)
	if err != nil {
		logger.Error("Error listing roles", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}
