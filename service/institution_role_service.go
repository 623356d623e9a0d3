// service/institution_role_service.go
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

// InstitutionRoleRepository is the persistence surface the institution role
// service needs.
type InstitutionRoleRepository interface {
	CreateRole(ctx context.Context, role model.InstitutionRole) (string, error)
	UpdateRole(ctx context.Context, role model.InstitutionRole) (*model.InstitutionRole, error)
	SetActive(ctx context.Context, institutionID, roleID string, active bool) error
	SoftDeleteRole(ctx context.Context, institutionID, roleID string) error
	GetRoleInInstitution(ctx context.Context, institutionID, roleID string) (*model.InstitutionRole, error)
	ListRolesByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionRole, error)
	ExistsByName(ctx context.Context, institutionID, name string) (bool, error)
	CountUsersWithRole(ctx context.Context, roleID string) (int64, error)
}

var _ InstitutionRoleRepository = (*dao.InstitutionRoleDAO)(nil)

// IInstitutionRoleService defines the interface for tenant role operations
type IInstitutionRoleService interface {
	CreateRole(ctx context.Context, role model.InstitutionRole, creatorID string) (*model.InstitutionRole, error)
	UpdateRole(ctx context.Context, role model.InstitutionRole, updaterID string) (*model.InstitutionRole, error)
	ActivateRole(ctx context.Context, institutionID, roleID string, updaterID string) error
	DeactivateRole(ctx context.Context, institutionID, roleID string, updaterID string) error
	DeleteRole(ctx context.Context, institutionID, roleID string, deleterID string) error
	GetRole(ctx context.Context, institutionID, roleID string) (*model.InstitutionRole, error)
	ListRoles(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionRole, error)
}

// InstitutionRoleService handles business logic for institution-scoped roles
type InstitutionRoleService struct {
	roleRepo        InstitutionRoleRepository
	permissionRepo  PermissionRepository
	institutionRepo InstitutionRepository
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IInstitutionRoleService = &InstitutionRoleService{}

// NewInstitutionRoleService creates a new instance of InstitutionRoleService
func NewInstitutionRoleService(roleRepo InstitutionRoleRepository, permissionRepo PermissionRepository, institutionRepo InstitutionRepository, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *InstitutionRoleService {
	service := &InstitutionRoleService{
		roleRepo:        roleRepo,
		permissionRepo:  permissionRepo,
		institutionRepo: institutionRepo,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("institution_role.created", service.handleRoleChanged("created"))
	eventBus.Subscribe("institution_role.updated", service.handleRoleChanged("updated"))
	eventBus.Subscribe("institution_role.deleted", service.handleRoleChanged("deleted"))

	return service
}

func (s *InstitutionRoleService) handleRoleChanged(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		role, ok := event.Payload.(model.InstitutionRole)
		if !ok {
			return nil
		}
		if err := s.notificationSvc.NotifyInstitutionRoleChange(ctx, changeType, role); err != nil {
			logger.Warn("Failed to send institution role change notification",
				zap.Error(err),
				zap.String("roleID", role.ID))
		}
		return nil
	}
}

func (s *InstitutionRoleService) resolvePermissions(ctx context.Context, permissionIDs []string) error {
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

// CreateRole creates a role owned by one institution. The institution must
// exist and be active; the name must be unused within that institution.
func (s *InstitutionRoleService) CreateRole(ctx context.Context, role model.InstitutionRole, creatorID string) (*model.InstitutionRole, error) {
	if err := s.validationUtil.ValidateInstitutionRole(role); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRoleData, err)
	}

	institution, err := s.institutionRepo.GetInstitution(ctx, role.InstitutionID)
	if err != nil {
		return nil, err
	}
	if !institution.IsActive {
		return nil, apperrors.ErrInstitutionInactive
	}

	exists, err := s.roleRepo.ExistsByName(ctx, role.InstitutionID, role.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrInstitutionRoleConflict
	}

	if err := s.resolvePermissions(ctx, role.PermissionIDs); err != nil {
		return nil, err
	}

	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()
	role.IsActive = true
	role.CreatedBy = creatorID

	roleID, err := s.roleRepo.CreateRole(ctx, role)
	if err != nil {
		logger.Error("Error creating institution role",
			zap.Error(err),
			zap.String("institutionID", role.InstitutionID),
			zap.String("creatorID", creatorID))
		return nil, err
	}

	created, err := s.roleRepo.GetRoleInInstitution(ctx, role.InstitutionID, roleID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetInstitutionRole(ctx, *created); err != nil {
		logger.Warn("Failed to cache institution role", zap.Error(err), zap.String("roleID", roleID))
	}
	s.eventBus.Publish(ctx, "institution_role.created", *created)

	logger.Info("Institution role created successfully",
		zap.String("roleID", roleID),
		zap.String("institutionID", role.InstitutionID),
		zap.String("creatorID", creatorID))
	return created, nil
}

// UpdateRole rewrites a role's name, description and permission references.
func (s *InstitutionRoleService) UpdateRole(ctx context.Context, role model.InstitutionRole, updaterID string) (*model.InstitutionRole, error) {
	if err := s.validationUtil.ValidateInstitutionRole(role); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRoleData, err)
	}

	existing, err := s.roleRepo.GetRoleInInstitution(ctx, role.InstitutionID, role.ID)
	if err != nil {
		return nil, err
	}
	if existing.Name != role.Name {
		taken, err := s.roleRepo.ExistsByName(ctx, role.InstitutionID, role.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.ErrInstitutionRoleConflict
		}
	}

	if err := s.resolvePermissions(ctx, role.PermissionIDs); err != nil {
		return nil, err
	}

	updatedRole, err := s.roleRepo.UpdateRole(ctx, role)
	if err != nil {
		logger.Error("Error updating institution role",
			zap.Error(err),
			zap.String("roleID", role.ID),
			zap.String("updaterID", updaterID))
		return nil, err
	}

	if err := s.cacheService.SetInstitutionRole(ctx, *updatedRole); err != nil {
		logger.Warn("Failed to cache institution role", zap.Error(err), zap.String("roleID", role.ID))
	}
	s.eventBus.Publish(ctx, "institution_role.updated", *updatedRole)

	logger.Info("Institution role updated successfully", zap.String("roleID", role.ID), zap.String("updaterID", updaterID))
	return updatedRole, nil
}

// ActivateRole re-enables a deactivated role. Activating an active role is
// rejected.
func (s *InstitutionRoleService) ActivateRole(ctx context.Context, institutionID, roleID string, updaterID string) error {
	return s.setActive(ctx, institutionID, roleID, updaterID, true)
}

// DeactivateRole suspends a role without deleting it. Users holding the role
// stop receiving its grants until it is activated again.
func (s *InstitutionRoleService) DeactivateRole(ctx context.Context, institutionID, roleID string, updaterID string) error {
	return s.setActive(ctx, institutionID, roleID, updaterID, false)
}

func (s *InstitutionRoleService) setActive(ctx context.Context, institutionID, roleID, updaterID string, active bool) error {
	role, err := s.roleRepo.GetRoleInInstitution(ctx, institutionID, roleID)
	if err != nil {
		return err
	}
	if role.IsActive == active {
		if active {
			return apperrors.ErrRoleAlreadyActive
		}
		return apperrors.ErrRoleAlreadyInactive
	}

	if err := s.roleRepo.SetActive(ctx, institutionID, roleID, active); err != nil {
		logger.Error("Error toggling institution role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Bool("active", active),
			zap.String("updaterID", updaterID))
		return err
	}

	if err := s.cacheService.DeleteInstitutionRole(ctx, roleID); err != nil {
		logger.Warn("Failed to evict institution role from cache", zap.Error(err), zap.String("roleID", roleID))
	}
	role.IsActive = active
	s.eventBus.Publish(ctx, "institution_role.updated", *role)

	logger.Info("Institution role activation changed",
		zap.String("roleID", roleID),
		zap.Bool("active", active),
		zap.String("updaterID", updaterID))
	return nil
}

// DeleteRole soft-deletes a role. A role still assigned to any institution
// user is kept.
func (s *InstitutionRoleService) DeleteRole(ctx context.Context, institutionID, roleID string, deleterID string) error {
	role, err := s.roleRepo.GetRoleInInstitution(ctx, institutionID, roleID)
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

	if err := s.roleRepo.SoftDeleteRole(ctx, institutionID, roleID); err != nil {
		logger.Error("Error deleting institution role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.String("deleterID", deleterID))
		return err
	}

	if err := s.cacheService.DeleteInstitutionRole(ctx, roleID); err != nil {
		logger.Warn("Failed to evict institution role from cache", zap.Error(err), zap.String("roleID", roleID))
	}
	s.eventBus.Publish(ctx, "institution_role.deleted", *role)

	logger.Info("Institution role deleted successfully", zap.String("roleID", roleID), zap.String("deleterID", deleterID))
	return nil
}

// GetRole retrieves a role within its institution, cache first.
func (s *InstitutionRoleService) GetRole(ctx context.Context, institutionID, roleID string) (*model.InstitutionRole, error) {
	if cached, err := s.cacheService.GetInstitutionRole(ctx, roleID); err == nil && cached != nil && cached.InstitutionID == institutionID {
		return cached, nil
	}

	role, err := s.roleRepo.GetRoleInInstitution(ctx, institutionID, roleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInstitutionRoleNotFound) {
			return nil, apperrors.ErrInstitutionRoleNotFound
		}
		logger.Error("Error retrieving institution role", zap.Error(err), zap.String("roleID", roleID))
		return nil, apperrors.ErrInternalServer
	}

	if err := s.cacheService.SetInstitutionRole(ctx, *role); err != nil {
		logger.Warn("Failed to cache institution role", zap.Error(err), zap.String("roleID", roleID))
	}
	return role, nil
}

// ListRoles retrieves an institution's roles with pagination
func (s *InstitutionRoleService) ListRoles(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionRole, error) {
	roles, err := s.roleRepo.ListRolesByInstitution(ctx, institutionID, limit, offset)
	if err != nil {
		logger.Error("Error listing institution roles",
			zap.Error(err),
			zap.String("institutionID", institutionID))
		return nil, fmt.Errorf("failed to list institution roles: %w", err)
	}
	return roles, nil
}
