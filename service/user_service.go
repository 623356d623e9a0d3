// service/user_service.go
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

// UserRepository is the persistence surface the system user service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, user model.User) (string, error)
	UpdateUser(ctx context.Context, user model.User) (*model.User, error)
	SetActive(ctx context.Context, userID string, active bool) error
	SoftDeleteUser(ctx context.Context, userID string) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPhone(ctx context.Context, phoneNumber string) (bool, error)
}

var _ UserRepository = (*dao.UserDAO)(nil)

// IUserService defines the interface for system-level user operations
type IUserService interface {
	CreateUser(ctx context.Context, user model.User, password string, creatorID string) (*model.User, error)
	UpdateUser(ctx context.Context, user model.User, updaterID string) (*model.User, error)
	ActivateUser(ctx context.Context, userID string, updaterID string) error
	DeactivateUser(ctx context.Context, userID string, updaterID string) error
	DeleteUser(ctx context.Context, userID string, deleterID string) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error)
}

// UserService handles business logic for system-level users, including the
// institution admins created under a tenant.
type UserService struct {
	userRepo        UserRepository
	roleRepo        RoleRepository
	institutionRepo InstitutionRepository
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IUserService = &UserService{}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo UserRepository, roleRepo RoleRepository, institutionRepo InstitutionRepository, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *UserService {
	service := &UserService{
		userRepo:        userRepo,
		roleRepo:        roleRepo,
		institutionRepo: institutionRepo,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("user.created", service.handleUserChanged("created"))
	eventBus.Subscribe("user.updated", service.handleUserChanged("updated"))
	eventBus.Subscribe("user.deleted", service.handleUserChanged("deleted"))

	return service
}

func (s *UserService) handleUserChanged(changeType string) util.EventHandler {
	return func(ctx context.Context, event util.Event) error {
		user, ok := event.Payload.(model.User)
		if !ok {
			return nil
		}
		if err := s.notificationSvc.NotifyUserChange(ctx, changeType, user); err != nil {
			logger.Warn("Failed to send user change notification",
				zap.Error(err),
				zap.String("userID", user.ID))
		}
		return nil
	}
}

// CreateUser registers a system user. Email and phone must be unused; every
// referenced role must exist; a referenced institution must exist.
func (s *UserService) CreateUser(ctx context.Context, user model.User, password string, creatorID string) (*model.User, error) {
	if err := s.validationUtil.ValidateUser(user); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidUserData, err)
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

	for _, roleID := range user.RoleIDs {
		if _, err := s.roleRepo.GetRole(ctx, roleID); err != nil {
			return nil, err
		}
	}
	if user.InstitutionID != "" {
		if _, err := s.institutionRepo.GetInstitution(ctx, user.InstitutionID); err != nil {
			return nil, err
		}
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
		logger.Error("Error creating user", zap.Error(err), zap.String("creatorID", creatorID))
		return nil, err
	}

	user.ID = userID
	user.Password = ""

	s.eventBus.Publish(ctx, "user.created", user)

	logger.Info("User created successfully",
		zap.String("userID", userID),
		zap.String("email", user.Email),
		zap.String("creatorID", creatorID))
	return &user, nil
}

// UpdateUser rewrites a user's profile fields and role references.
func (s *UserService) UpdateUser(ctx context.Context, user model.User, updaterID string) (*model.User, error) {
	if _, err := s.userRepo.GetUserByID(ctx, user.ID); err != nil {
		return nil, err
	}

	for _, roleID := range user.RoleIDs {
		if _, err := s.roleRepo.GetRole(ctx, roleID); err != nil {
			return nil, err
		}
	}

	updated, err := s.userRepo.UpdateUser(ctx, user)
	if err != nil {
		logger.Error("Error updating user", zap.Error(err), zap.String("userID", user.ID), zap.String("updaterID", updaterID))
		return nil, err
	}

	s.eventBus.Publish(ctx, "user.updated", *updated)

	logger.Info("User updated successfully", zap.String("userID", user.ID), zap.String("updaterID", updaterID))
	return updated, nil
}

// ActivateUser re-enables a deactivated user.
func (s *UserService) ActivateUser(ctx context.Context, userID string, updaterID string) error {
	return s.setActive(ctx, userID, updaterID, true)
}

// DeactivateUser suspends a user's account without deleting it.
func (s *UserService) DeactivateUser(ctx context.Context, userID string, updaterID string) error {
	return s.setActive(ctx, userID, updaterID, false)
}

func (s *UserService) setActive(ctx context.Context, userID, updaterID string, active bool) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsActive == active {
		if active {
			return apperrors.ErrUserAlreadyActive
		}
		return apperrors.ErrUserAlreadyInactive
	}

	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		logger.Error("Error toggling user",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Bool("active", active),
			zap.String("updaterID", updaterID))
		return err
	}

	user.IsActive = active
	s.eventBus.Publish(ctx, "user.updated", *user)

	logger.Info("User activation changed",
		zap.String("userID", userID),
		zap.Bool("active", active),
		zap.String("updaterID", updaterID))
	return nil
}

// DeleteUser soft-deletes a user.
func (s *UserService) DeleteUser(ctx context.Context, userID string, deleterID string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.SoftDeleteUser(ctx, userID); err != nil {
		logger.Error("Error deleting user", zap.Error(err), zap.String("userID", userID), zap.String("deleterID", deleterID))
		return err
	}

	s.eventBus.Publish(ctx, "user.deleted", *user)

	logger.Info("User deleted successfully", zap.String("userID", userID), zap.String("deleterID", deleterID))
	return nil
}

// GetUser retrieves a system user by ID
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error("Error retrieving user", zap.Error(err), zap.String("userID", userID))
		return nil, apperrors.ErrInternalServer
	}
	return user, nil
}

// ListUsers retrieves system users with pagination
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error) {
	users, err := s.userRepo.ListUsers(ctx, limit, offset)
	if err != nil {
		logger.Error("Error listing users", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
