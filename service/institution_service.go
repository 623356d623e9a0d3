// service/institution_service.go
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

// InstitutionRepository is the persistence surface the institution service
// needs.
type InstitutionRepository interface {
	CreateInstitution(ctx context.Context, institution model.Institution) (string, error)
	UpdateInstitution(ctx context.Context, institution model.Institution) (*model.Institution, error)
	SetActive(ctx context.Context, institutionID string, active bool) error
	SoftDeleteInstitution(ctx context.Context, institutionID string) error
	GetInstitution(ctx context.Context, institutionID string) (*model.Institution, error)
	ListInstitutions(ctx context.Context, limit, offset int) ([]*model.Institution, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
}

var _ InstitutionRepository = (*dao.InstitutionDAO)(nil)

// IInstitutionService defines the interface for institution operations
type IInstitutionService interface {
	CreateInstitution(ctx context.Context, institution model.Institution, creatorID string) (*model.Institution, error)
	UpdateInstitution(ctx context.Context, institution model.Institution, updaterID string) (*model.Institution, error)
	ActivateInstitution(ctx context.Context, institutionID string, updaterID string) error
	DeactivateInstitution(ctx context.Context, institutionID string, updaterID string) error
	DeleteInstitution(ctx context.Context, institutionID string, deleterID string) error
	GetInstitution(ctx context.Context, institutionID string) (*model.Institution, error)
	ListInstitutions(ctx context.Context, limit, offset int) ([]*model.Institution, error)
}

// InstitutionService handles business logic for tenants
type InstitutionService struct {
	institutionRepo InstitutionRepository
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IInstitutionService = &InstitutionService{}

// NewInstitutionService creates a new instance of InstitutionService
func NewInstitutionService(institutionRepo InstitutionRepository, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *InstitutionService {
	service := &InstitutionService{
		institutionRepo: institutionRepo,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("institution.created", service.handleInstitutionChanged("created"))
	eventBus.Subscribe("institution.updated", service.handleInstitutionChanged("updated"))
	eventBus.Subscribe("institution.deleted", service.handleInstitutionChanged("deleted"))

	return service
}

func (s *InstitutionService) handleInstitutionChanged(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		institution, ok := event.Payload.(model.Institution)
		if !ok {
			return nil
		}
		if err := s.notificationSvc.NotifyInstitutionChange(ctx, changeType, institution); err != nil {
			logger.Warn("Failed to send institution change notification",
				zap.Error(err),
				zap.String("institutionID", institution.ID))
		}
		return nil
	}
}

// CreateInstitution registers a tenant. The name must be unused.
func (s *InstitutionService) CreateInstitution(ctx context.Context, institution model.Institution, creatorID string) (*model.Institution, error) {
	if err := s.validationUtil.ValidateInstitution(institution); err != nil {
		return nil, err
	}

	exists, err := s.institutionRepo.ExistsByName(ctx, institution.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("institution %q already exists", institution.Name)
	}

	institution.CreatedAt = time.Now()
	institution.UpdatedAt = time.Now()
	institution.IsActive = true
	institution.CreatedBy = creatorID

	institutionID, err := s.institutionRepo.CreateInstitution(ctx, institution)
	if err != nil {
		logger.Error("Error creating institution", zap.Error(err), zap.String("creatorID", creatorID))
		return nil, err
	}

	institution.ID = institutionID

	if err := s.cacheService.SetInstitution(ctx, institution); err != nil {
		logger.Warn("Failed to cache institution", zap.Error(err), zap.String("institutionID", institutionID))
	}
	s.eventBus.Publish(ctx, "institution.created", institution)

	logger.Info("Institution created successfully",
		zap.String("institutionID", institutionID),
		zap.String("name", institution.Name),
		zap.String("creatorID", creatorID))
	return &institution, nil
}

// UpdateInstitution rewrites a tenant's profile fields.
func (s *InstitutionService) UpdateInstitution(ctx context.Context, institution model.Institution, updaterID string) (*model.Institution, error) {
	if err := s.validationUtil.ValidateInstitution(institution); err != nil {
		return nil, err
	}

	existing, err := s.institutionRepo.GetInstitution(ctx, institution.ID)
	if err != nil {
		return nil, err
	}
	if existing.Name != institution.Name {
		taken, err := s.institutionRepo.ExistsByName(ctx, institution.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("institution %q already exists", institution.Name)
		}
	}

	updated, err := s.institutionRepo.UpdateInstitution(ctx, institution)
	if err != nil {
		logger.Error("Error updating institution",
			zap.Error(err),
			zap.String("institutionID", institution.ID),
			zap.String("updaterID", updaterID))
		return nil, err
	}

	if err := s.cacheService.SetInstitution(ctx, *updated); err != nil {
		logger.Warn("Failed to cache institution", zap.Error(err), zap.String("institutionID", institution.ID))
	}
	s.eventBus.Publish(ctx, "institution.updated", *updated)

	logger.Info("Institution updated successfully", zap.String("institutionID", institution.ID), zap.String("updaterID", updaterID))
	return updated, nil
}

// ActivateInstitution re-enables a suspended tenant.
func (s *InstitutionService) ActivateInstitution(ctx context.Context, institutionID string, updaterID string) error {
	return s.setActive(ctx, institutionID, updaterID, true)
}

// DeactivateInstitution suspends a tenant. Its principals keep their
// accounts but are denied at enforcement time while the suspension lasts.
func (s *InstitutionService) DeactivateInstitution(ctx context.Context, institutionID string, updaterID string) error {
	return s.setActive(ctx, institutionID, updaterID, false)
}

func (s *InstitutionService) setActive(ctx context.Context, institutionID, updaterID string, active bool) error {
	institution, err := s.institutionRepo.GetInstitution(ctx, institutionID)
	if err != nil {
		return err
	}
	if institution.IsActive == active {
		if active {
			return apperrors.ErrInstitutionAlreadyActive
		}
		return apperrors.ErrInstitutionAlreadyInactive
	}

	if err := s.institutionRepo.SetActive(ctx, institutionID, active); err != nil {
		logger.Error("Error toggling institution",
			zap.Error(err),
			zap.String("institutionID", institutionID),
			zap.Bool("active", active),
			zap.String("updaterID", updaterID))
		return err
	}

	if err := s.cacheService.DeleteInstitution(ctx, institutionID); err != nil {
		logger.Warn("Failed to evict institution from cache", zap.Error(err), zap.String("institutionID", institutionID))
	}
	institution.IsActive = active
	s.eventBus.Publish(ctx, "institution.updated", *institution)

	logger.Info("Institution activation changed",
		zap.String("institutionID", institutionID),
		zap.Bool("active", active),
		zap.String("updaterID", updaterID))
	return nil
}

// DeleteInstitution soft-deletes a tenant.
func (s *InstitutionService) DeleteInstitution(ctx context.Context, institutionID string, deleterID string) error {
	institution, err := s.institutionRepo.GetInstitution(ctx, institutionID)
	if err != nil {
		return err
	}

	if err := s.institutionRepo.SoftDeleteInstitution(ctx, institutionID); err != nil {
		logger.Error("Error deleting institution",
			zap.Error(err),
			zap.String("institutionID", institutionID),
			zap.String("deleterID", deleterID))
		return err
	}

	if err := s.cacheService.DeleteInstitution(ctx, institutionID); err != nil {
		logger.Warn("Failed to evict institution from cache", zap.Error(err), zap.String("institutionID", institutionID))
	}
	s.eventBus.Publish(ctx, "institution.deleted", *institution)

	logger.Info("Institution deleted successfully", zap.String("institutionID", institutionID), zap.String("deleterID", deleterID))
	return nil
}

// GetInstitution retrieves a tenant, cache first.
func (s *InstitutionService) GetInstitution(ctx context.Context, institutionID string) (*model.Institution, error) {
	if cached, err := s.cacheService.GetInstitution(ctx, institutionID); err == nil && cached != nil {
		return cached, nil
	}

	institution, err := s.institutionRepo.GetInstitution(ctx, institutionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInstitutionNotFound) {
			return nil, apperrors.ErrInstitutionNotFound
		}
		logger.Error("Error retrieving institution", zap.Error(err), zap.String("institutionID", institutionID))
		return nil, apperrors.ErrInternalServer
	}

	if err := s.cacheService.SetInstitution(ctx, *institution); err != nil {
		logger.Warn("Failed to cache institution", zap.Error(err), zap.String("institutionID", institutionID))
	}
	return institution, nil
}

// ListInstitutions retrieves tenants with pagination
func (s *InstitutionService) ListInstitutions(ctx context.Context, limit, offset int) ([]*model.Institution, error) {
	institutions, err := s.institutionRepo.ListInstitutions(ctx, limit, offset)
	if err != nil {
		logger.Error("Error listing institutions", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	return institutions, nil
}
