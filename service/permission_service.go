// service/permission_service.go
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

// PermissionRepository is the persistence surface the permission service
// needs.
type PermissionRepository interface {
	CreatePermission(ctx context.Context, permission model.Permission) (string, error)
	UpdatePermission(ctx context.Context, permission model.Permission) (*model.Permission, error)
	DeletePermission(ctx context.Context, permissionID string) error
	GetPermission(ctx context.Context, permissionID string) (*model.Permission, error)
	GetPermissionBySlug(ctx context.Context, slug string) (*model.Permission, error)
	GetPermissionsByIDs(ctx context.Context, permissionIDs []string) ([]model.Permission, error)
	ListPermissions(ctx context.Context, limit, offset int) ([]*model.Permission, error)
}

var _ PermissionRepository = (*dao.PermissionDAO)(nil)

// IPermissionService defines the interface for permission catalog operations
type IPermissionService interface {
	CreatePermission(ctx context.Context, permission model.Permission, creatorID string) (*model.Permission, error)
	UpdatePermission(ctx context.Context, permission model.Permission, updaterID string) (*model.Permission, error)
	DeletePermission(ctx context.Context, permissionID string, deleterID string) error
	GetPermission(ctx context.Context, permissionID string) (*model.Permission, error)
	ListPermissions(ctx context.Context, limit int, offset int) ([]*model.Permission, error)
}

// PermissionService handles business logic for the permission catalog
type PermissionService struct {
	permissionRepo  PermissionRepository
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IPermissionService = &PermissionService{}

// NewPermissionService creates a new instance of PermissionService
func NewPermissionService(permissionRepo PermissionRepository, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *PermissionService {
	service := &PermissionService{
		permissionRepo:  permissionRepo,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("permission.created", service.handlePermissionChanged("created"))
	eventBus.Subscribe("permission.updated", service.handlePermissionChanged("updated"))
	eventBus.Subscribe("permission.deleted", service.handlePermissionChanged("deleted"))

	return service
}

func (s *PermissionService) handlePermissionChanged(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		permission, ok := event.Payload.(model.Permission)
		if !ok {
			return nil
		}
		if err := s.notificationSvc.NotifyPermissionChange(ctx, changeType, permission); err != nil {
			logger.Warn("Failed to send permission change notification",
				zap.Error(err),
				zap.String("permissionID", permission.ID))
		}
		return nil
	}
}

// CreatePermission adds a catalog entry. The derived slug must be unused.
func (s *PermissionService) CreatePermission(ctx context.Context, permission model.Permission, creatorID string) (*model.Permission, error) {
	if err := s.validationUtil.ValidatePermission(permission); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPermissionData, err)
	}

	slug := model.ResolveSlug(permission.Resource, permission.Action)
	if existing, err := s.permissionRepo.GetPermissionBySlug(ctx, slug); err == nil && existing != nil {
		return nil, apperrors.ErrPermissionConflict
	} else if err != nil && !errors.Is(err, apperrors.ErrPermissionNotFound) {
		return nil, err
	}

	permission.CreatedAt = time.Now()
	permission.UpdatedAt = time.Now()

	permissionID, err := s.permissionRepo.CreatePermission(ctx, permission)
	if err != nil {
		logger.Error("Error creating permission", zap.Error(err), zap.String("creatorID", creatorID))
		return nil, err
	}

	permission.ID = permissionID
	permission.Slug = slug

	s.eventBus.Publish(ctx, "permission.created", permission)

	logger.Info("Permission created successfully",
		zap.String("permissionID", permissionID),
		zap.String("slug", slug),
		zap.String("creatorID", creatorID))
	return &permission, nil
}

// UpdatePermission rewrites a catalog entry. The re-derived slug must not
// collide with another entry.
func (s *PermissionService) UpdatePermission(ctx context.Context, permission model.Permission, updaterID string) (*model.Permission, error) {
	if err := s.validationUtil.ValidatePermission(permission); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidPermissionData, err)
	}

	slug := model.ResolveSlug(permission.Resource, permission.Action)
	if existing, err := s.permissionRepo.GetPermissionBySlug(ctx, slug); err == nil && existing != nil && existing.ID != permission.ID {
		return nil, apperrors.ErrPermissionConflict
	} else if err != nil && !errors.Is(err, apperrors.ErrPermissionNotFound) {
		return nil, err
	}

	updatedPermission, err := s.permissionRepo.UpdatePermission(ctx, permission)
	if err != nil {
		logger.Error("Error updating permission", zap.Error(err), zap.String("permissionID", permission.ID), zap.String("updaterID", updaterID))
		return nil, err
	}

	s.eventBus.Publish(ctx, "permission.updated", *updatedPermission)

	logger.Info("Permission updated successfully", zap.String("permissionID", permission.ID), zap.String("updaterID", updaterID))
	return updatedPermission, nil
}

// DeletePermission removes a catalog entry.
func (s *PermissionService) DeletePermission(ctx context.Context, permissionID string, deleterID string) error {
	permission, err := s.permissionRepo.GetPermission(ctx, permissionID)
	if err != nil {
		return err
	}

	if err := s.permissionRepo.DeletePermission(ctx, permissionID); err != nil {
		logger.Error("Error deleting permission", zap.Error(err), zap.String("permissionID", permissionID), zap.String("deleterID", deleterID))
		return err
	}

	s.eventBus.Publish(ctx, "permission.deleted", *permission)

	logger.Info("Permission deleted successfully", zap.String("permissionID", permissionID), zap.String("deleterID", deleterID))
	return nil
}

// GetPermission retrieves a catalog entry by its ID
func (s *PermissionService) GetPermission(ctx context.Context, permissionID string) (*model.Permission, error) {
	permission, err := s.permissionRepo.GetPermission(ctx, permissionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPermissionNotFound) {
			return nil, apperrors.ErrPermissionNotFound
		}
		logger.Error("Error retrieving permission", zap.Error(err), zap.String("permissionID", permissionID))
		return nil, apperrors.ErrInternalServer
	}
	return permission, nil
}

// ListPermissions retrieves the catalog with pagination
func (s *PermissionService) ListPermissions(ctx context.Context, limit int, offset int) ([]*model.Permission, error) {
	permissions, err := s.permissionRepo.ListPermissions(ctx, limit, offset)
	if err != nil {
		logger.Error("Error listing permissions", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissions, nil
}
