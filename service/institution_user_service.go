// service/institution_user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusmesh/campus/api/dao"
	apperrors "github.com/campusmesh/campus/api/errors"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/util"
)

// InstitutionUserRepository is the persistence surface the institution user
// service needs.
type InstitutionUserRepository interface {
	CreateUser(ctx context.Context, user model.InstitutionUser) (string, error)
	UpdateUser(ctx context.Context, user model.InstitutionUser) (*model.InstitutionUser, error)
	SetActive(ctx context.Context, institutionID, userID string, active bool) error
	SoftDeleteUser(ctx context.Context, institutionID, userID string) error
	GetInstitutionUserByID(ctx context.Context, userID string) (*model.InstitutionUser, error)
	ListUsersByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionUser, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phoneNumber string) (bool, error)
}

var _ InstitutionUserRepository = (*dao.InstitutionUserDAO)(nil)

// IInstitutionUserService defines the interface for tenant user operations
type IInstitutionUserService interface {
	CreateUser(ctx context.Context, user model.InstitutionUser, password string, creatorID string) (*model.InstitutionUser, error)
	UpdateUser(ctx context.Context, user model.InstitutionUser, updaterID string) (*model.InstitutionUser, error)
	ActivateUser(ctx context.Context, institutionID, userID string, updaterID string) error
	DeactivateUser(ctx context.Context, institutionID, userID string, updaterID string) error
	DeleteUser(ctx context.Context, institutionID, userID string, deleterID string) error
	GetUser(ctx context.Context, institutionID, userID string) (*model.InstitutionUser, error)
	ListUsers(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionUser, error)
}

// InstitutionUserService handles business logic for institution-scoped users
type InstitutionUserService struct {
	userRepo        InstitutionUserRepository
	roleRepo        InstitutionRoleRepository
	institutionRepo InstitutionRepository
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IInstitutionUserService = &InstitutionUserService{}

// NewInstitutionUserService creates a new instance of InstitutionUserService
func NewInstitutionUserService(userRepo InstitutionUserRepository, roleRepo InstitutionRoleRepository, institutionRepo InstitutionRepository, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *InstitutionUserService {
	service := &InstitutionUserService{
		userRepo:        userRepo,
		roleRepo:        roleRepo,
		institutionRepo: institutionRepo,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("institution_user.created", service.handleUserChanged("created"))
	eventBus.Subscribe("institution_user.updated", service.handleUserChanged("updated"))
	eventBus.Subscribe("institution_user.deleted", service.handleUserChanged("deleted"))

	return service
}

func (s *InstitutionUserService) handleUserChanged(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		user, ok := event.Payload.(model.InstitutionUser)
		if !ok {
			return nil
		}
		if err := s.notificationSvc.NotifyInstitutionUserChange(ctx, changeType, user); err != nil {
			logger.Warn("Failed to send institution user change notification",
				zap.Error(err),
				zap.String("userID", user.ID))
		}
		return nil
	}
}

// resolveRoles verifies every referenced role exists and belongs to the
// user's own institution.
func (s *InstitutionUserService) resolveRoles(ctx context.Context, institutionID string, roleIDs []string) error {
	for _, roleID := range roleIDs {
		role, err := s.roleRepo.GetRoleInInstitution(ctx, institutionID, roleID)
		if err != nil {
			if errors.Is(err, apperrors.ErrInstitutionRoleNotFound) {
				return apperrors.ErrRoleNotInInstitution
			}
			return err
		}
		if role.InstitutionID != institutionID {
			return apperrors.ErrRoleNotInInstitution
		}
	}
	return nil
}

// CreateUser registers a tenant user. The institution must exist and be
// active; email and phone must be unused; every referenced role must belong
// to the same institution.
func (s *InstitutionUserService) CreateUser(ctx context.Context, user model.InstitutionUser, password string, creatorID string) (*model.InstitutionUser, error) {
	if err := s.validationUtil.ValidateInstitutionUser(user); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidUserData, err)
	}

	institution, err := s.institutionRepo.GetInstitution(ctx, user.InstitutionID)
	if err != nil {
		return nil, err
	}
	if !institution.IsActive {
		return nil, apperrors.ErrInstitutionInactive
	}

	if exists, err := s.userRepo.ExistsByEmail(ctx, user.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, apperrors.ErrEmailConflict
	}
	if user.PhoneNumber != "" {
		if exists, err := s.userRepo.ExistsByPhone(ctx, user.PhoneNumber); err != nil {
			return nil, err
		} else if exists {
			return nil, apperrors.ErrPhoneConflict
		}
	}

	if err := s.resolveRoles(ctx, user.InstitutionID, user.RoleIDs); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	user.IsActive = true
	user.CreatedBy = creatorID

	userID, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		logger.Error("Error creating institution user",
			zap.Error(err),
			zap.String("institutionID", user.InstitutionID),
			zap.String("creatorID", creatorID))
		return nil, err
	}

	user.ID = userID
	user.Password = ""

	if err := s.cacheService.SetInstitutionUser(ctx, user); err != nil {
		logger.Warn("Failed to cache institution user", zap.Error(err), zap.String("userID", userID))
	}
	s.eventBus.Publish(ctx, "institution_user.created", user)

	logger.Info("Institution user created successfully",
		zap.String("userID", userID),
		zap.String("institutionID", user.InstitutionID),
		zap.String("creatorID", creatorID))
	return &user, nil
}

// UpdateUser rewrites a tenant user's profile fields and role references.
func (s *InstitutionUserService) UpdateUser(ctx context.Context, user model.InstitutionUser, updaterID string) (*model.InstitutionUser, error) {
	existing, err := s.userRepo.GetInstitutionUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing.InstitutionID != user.InstitutionID {
		return nil, apperrors.ErrUserNotFound
	}

	if err := s.resolveRoles(ctx, user.InstitutionID, user.RoleIDs); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateUser(ctx, user)
	if err != nil {
		logger.Error("Error updating institution user",
			zap.Error(err),
			zap.String("userID", user.ID),
			zap.String("updaterID", updaterID))
		return nil, err
	}

	if err := s.cacheService.SetInstitutionUser(ctx, *updated); err != nil {
		logger.Warn("Failed to cache institution user", zap.Error(err), zap.String("userID", user.ID))
	}
	s.eventBus.Publish(ctx, "institution_user.updated", *updated)

	logger.Info("Institution user updated successfully", zap.String("userID", user.ID), zap.String("updaterID", updaterID))
	return updated, nil
}

// ActivateUser re-enables a deactivated tenant user.
func (s *InstitutionUserService) ActivateUser(ctx context.Context, institutionID, userID string, updaterID string) error {
	return s.setActive(ctx, institutionID, userID, updaterID, true)
}

// DeactivateUser suspends a tenant user. The guard denies the user's
// requests while inactive.
func (s *InstitutionUserService) DeactivateUser(ctx context.Context, institutionID, userID string, updaterID string) error {
	return s.setActive(ctx, institutionID, userID, updaterID, false)
}

func (s *InstitutionUserService) setActive(ctx context.Context, institutionID, userID, updaterID string, active bool) error {
	user, err := s.userRepo.GetInstitutionUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.InstitutionID != institutionID {
		return apperrors.ErrUserNotFound
	}
	if user.IsActive == active {
		if active {
			return apperrors.ErrUserAlreadyActive
		}
		return apperrors.ErrUserAlreadyInactive
	}

	if err := s.userRepo.SetActive(ctx, institutionID, userID, active); err != nil {
		logger.Error("Error toggling institution user",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Bool("active", active),
			zap.String("updaterID", updaterID))
		return err
	}

	if err := s.cacheService.DeleteInstitutionUser(ctx, userID); err != nil {
		logger.Warn("Failed to evict institution user from cache", zap.Error(err), zap.String("userID", userID))
	}
	user.IsActive = active
	s.eventBus.Publish(ctx, "institution_user.updated", *user)

	logger.Info("Institution user activation changed",
		zap.String("userID", userID),
		zap.Bool("active", active),
		zap.String("updaterID", updaterID))
	return nil
}

// DeleteUser soft-deletes a tenant user.
func (s *InstitutionUserService) DeleteUser(ctx context.Context, institutionID, userID string, deleterID string) error {
	user, err := s.userRepo.GetInstitutionUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.InstitutionID != institutionID {
		return apperrors.ErrUserNotFound
	}

	if err := s.userRepo.SoftDeleteUser(ctx, institutionID, userID); err != nil {
		logger.Error("Error deleting institution user",
			zap.Error(err),
			zap.String("userID", userID),
			zap.String("deleterID", deleterID))
		return err
	}

	if err := s.cacheService.DeleteInstitutionUser(ctx, userID); err != nil {
		logger.Warn("Failed to evict institution user from cache", zap.Error(err), zap.String("userID", userID))
	}
	s.eventBus.Publish(ctx, "institution_user.deleted", *user)

	logger.Info("Institution user deleted successfully", zap.String("userID", userID), zap.String("deleterID", deleterID))
	return nil
}

// GetUser retrieves a tenant user within its institution, cache first.
func (s *InstitutionUserService) GetUser(ctx context.Context, institutionID, userID string) (*model.InstitutionUser, error) {
	if cached, err := s.cacheService.GetInstitutionUser(ctx, userID); err == nil && cached != nil && cached.InstitutionID == institutionID {
		return cached, nil
	}

	user, err := s.userRepo.GetInstitutionUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error("Error retrieving institution user", zap.Error(err), zap.String("userID", userID))
		return nil, apperrors.ErrInternalServer
	}
	if user.InstitutionID != institutionID {
		return nil, apperrors.ErrUserNotFound
	}

	if err := s.cacheService.SetInstitutionUser(ctx, *user); err != nil {
		logger.Warn("Failed to cache institution user", zap.Error(err), zap.String("userID", userID))
	}
	return user, nil
}

// ListUsers retrieves an institution's users with pagination
func (s *InstitutionUserService) ListUsers(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionUser, error) {
	users, err := s.userRepo.ListUsersByInstitution(ctx, institutionID, limit, offset)
	if err != nil {
		logger.Error("Error listing institution users",
			zap.Error(err),
			zap.String("institutionID", institutionID))
		return nil, fmt.Errorf("failed to list institution users: %w", err)
	}
	return users, nil
}
