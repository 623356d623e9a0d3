// service/auth_service.go
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusmesh/campus/api/auth"
	"github.com/campusmesh/campus/api/dao"
	apperrors "github.com/campusmesh/campus/api/errors"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
)

// Credential lookups for the two login flows. The DAO email reads return
// the stored password hash; nothing else does.
type UserCredentialReader interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type InstitutionUserCredentialReader interface {
	GetUserByEmail(ctx context.Context, email string) (*model.InstitutionUser, error)
}

// Role lookups used to resolve a principal's roles at login time.
type RoleReader interface {
	GetRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.Role, error)
}

type InstitutionRoleReader interface {
	GetActiveRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.InstitutionRole, error)
}

var (
	_ UserCredentialReader            = (*dao.UserDAO)(nil)
	_ InstitutionUserCredentialReader = (*dao.InstitutionUserDAO)(nil)
	_ RoleReader                      = (*dao.RoleDAO)(nil)
	_ InstitutionRoleReader           = (*dao.InstitutionRoleDAO)(nil)
)

// LoginResult carries an issued token and the profile it was issued for.
type LoginResult struct {
	Token           string                 `json:"token"`
	User            *model.User            `json:"user,omitempty"`
	InstitutionUser *model.InstitutionUser `json:"institutionUser,omitempty"`
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	InstitutionLogin(ctx context.Context, email, password string) (*LoginResult, error)
}

// AuthService issues tokens for system and institution principals
type AuthService struct {
	userRepo            UserCredentialReader
	institutionUserRepo InstitutionUserCredentialReader
	institutionRepo     InstitutionRepository
	roleRepo            RoleReader
	institutionRoleRepo InstitutionRoleReader
	jwtManager          *auth.JWTManager
}

var _ IAuthService = &AuthService{}

// NewAuthService creates a new instance of AuthService
func NewAuthService(users UserCredentialReader, institutionUsers InstitutionUserCredentialReader, institutionRepo InstitutionRepository, roles RoleReader, institutionRoles InstitutionRoleReader, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{
		userRepo:            users,
		institutionUserRepo: institutionUsers,
		institutionRepo:     institutionRepo,
		roleRepo:            roles,
		institutionRoleRepo: institutionRoles,
		jwtManager:          jwtManager,
	}
}

// Login authenticates a system user and issues a system-scoped token.
// Lookup misses and password mismatches return the same error. Only
// holders of the super admin role may log in at the system level.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		logger.Error("Error looking up user for login", zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logger.Warn("Failed login attempt", zap.String("email", email))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrPrincipalInactive
	}

	roles, err := s.roleRepo.GetRolesByIDs(ctx, user.RoleIDs)
	if err != nil {
		logger.Error("Error loading roles for login", zap.Error(err), zap.String("userID", user.ID))
		return nil, apperrors.ErrInternalServer
	}
	user.Roles = make([]model.Role, 0, len(roles))
	isSuperAdmin := false
	for _, role := range roles {
		user.Roles = append(user.Roles, *role)
		if role.Name == model.SuperAdminRoleName {
			isSuperAdmin = true
		}
	}
	if !isSuperAdmin {
		logger.Warn("Login rejected for non super admin", zap.String("userID", user.ID))
		return nil, apperrors.ErrNotSuperAdmin
	}

	token, err := s.jwtManager.GenerateUserToken(user)
	if err != nil {
		logger.Error("Error generating token", zap.Error(err), zap.String("userID", user.ID))
		return nil, apperrors.ErrInternalServer
	}

	user.Password = ""

	logger.Info("User logged in", zap.String("userID", user.ID))
	return &LoginResult{Token: token, User: user}, nil
}

// InstitutionLogin authenticates a tenant user and issues an
// institution-scoped token. Users of a suspended institution cannot log in.
func (s *AuthService) InstitutionLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.institutionUserRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		logger.Error("Error looking up institution user for login", zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		logger.Warn("Failed institution login attempt", zap.String("email", email))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrPrincipalInactive
	}

	institution, err := s.institutionRepo.GetInstitution(ctx, user.InstitutionID)
	if err != nil {
		logger.Error("Error looking up institution for login", zap.Error(err), zap.String("institutionID", user.InstitutionID))
		return nil, apperrors.ErrInternalServer
	}
	if !institution.IsActive {
		return nil, apperrors.ErrInstitutionInactive
	}

	roles, err := s.institutionRoleRepo.GetActiveRolesByIDs(ctx, user.RoleIDs)
	if err != nil {
		logger.Error("Error loading institution roles for login", zap.Error(err), zap.String("userID", user.ID))
		return nil, apperrors.ErrInternalServer
	}
	user.Roles = make([]model.InstitutionRole, 0, len(roles))
	for _, role := range roles {
		user.Roles = append(user.Roles, *role)
	}

	token, err := s.jwtManager.GenerateInstitutionUserToken(user)
	if err != nil {
		logger.Error("Error generating token", zap.Error(err), zap.String("userID", user.ID))
		return nil, apperrors.ErrInternalServer
	}

	user.Password = ""

	logger.Info("Institution user logged in", zap.String("userID", user.ID), zap.String("institutionID", user.InstitutionID))
	return &LoginResult{Token: token, InstitutionUser: user}, nil
}
