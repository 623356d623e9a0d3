// service/auth_service_test.go
package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusmesh/campus/api/auth"
	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/service"
)

type fakeUserReader struct {
	user *model.User
}

func (f *fakeUserReader) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *f.user
	return &copied, nil
}

type fakeInstitutionUserReader struct {
	user *model.InstitutionUser
}

func (f *fakeInstitutionUserReader) GetUserByEmail(ctx context.Context, email string) (*model.InstitutionUser, error) {
	if f.user == nil || f.user.Email != email {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *f.user
	return &copied, nil
}

type fakeRoleReader struct {
	roles map[string]model.Role
}

func (f *fakeRoleReader) GetRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.Role, error) {
	out := make([]*model.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		if role, ok := f.roles[id]; ok {
			copied := role
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeInstitutionRoleReader struct {
	roles map[string]model.InstitutionRole
}

func (f *fakeInstitutionRoleReader) GetActiveRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.InstitutionRole, error) {
	out := make([]*model.InstitutionRole, 0, len(roleIDs))
	for _, id := range roleIDs {
		if role, ok := f.roles[id]; ok {
			copied := role
			out = append(out, &copied)
		}
	}
	return out, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	roleReader := &fakeRoleReader{roles: map[string]model.Role{
		"role::super":   {ID: "role::super", Name: model.SuperAdminRoleName},
		"role::support": {ID: "role::support", Name: "Support Agent"},
	}}

	newService := func(user *model.User) *service.AuthService {
		return service.NewAuthService(
			&fakeUserReader{user: user},
			&fakeInstitutionUserReader{},
			newFakeInstitutionRepo(),
			roleReader,
			&fakeInstitutionRoleReader{},
			jwtManager,
		)
	}

	t.Run("Login_Success", func(t *testing.T) {
		svc := newService(&model.User{
			ID:        "user::1",
			FirstName: "Asha",
			Email:     "asha@example.com",
			Password:  hashPassword(t, "s3cret-pass"),
			RoleIDs:   []string{"role::super"},
			Auditable: model.Auditable{IsActive: true},
		})

		result, err := svc.Login(ctx, "asha@example.com", "s3cret-pass")

		require.NoError(t, err)
		assert.Empty(t, result.User.Password)
		require.Len(t, result.User.Roles, 1)
		assert.Equal(t, model.SuperAdminRoleName, result.User.Roles[0].Name)

		claims, err := jwtManager.VerifyToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "user::1", claims.UserID)
		assert.Equal(t, auth.ScopeSystem, claims.Scope)
		assert.Empty(t, claims.InstitutionID)
	})

	t.Run("Login_Failure_UnknownEmail", func(t *testing.T) {
		svc := newService(nil)

		_, err := svc.Login(ctx, "nobody@example.com", "s3cret-pass")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("Login_Failure_WrongPassword", func(t *testing.T) {
		svc := newService(&model.User{
			ID:        "user::1",
			Email:     "asha@example.com",
			Password:  hashPassword(t, "s3cret-pass"),
			Auditable: model.Auditable{IsActive: true},
		})

		_, err := svc.Login(ctx, "asha@example.com", "wrong-pass")

		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("Login_Failure_InactiveUser", func(t *testing.T) {
		svc := newService(&model.User{
			ID:       "user::1",
			Email:    "asha@example.com",
			Password: hashPassword(t, "s3cret-pass"),
		})

		_, err := svc.Login(ctx, "asha@example.com", "s3cret-pass")

		assert.ErrorIs(t, err, apperrors.ErrPrincipalInactive)
	})

	t.Run("Login_Failure_NoRoles", func(t *testing.T) {
		svc := newService(&model.User{
			ID:        "user::1",
			Email:     "asha@example.com",
			Password:  hashPassword(t, "s3cret-pass"),
			Auditable: model.Auditable{IsActive: true},
		})

		_, err := svc.Login(ctx, "asha@example.com", "s3cret-pass")

		assert.ErrorIs(t, err, apperrors.ErrNotSuperAdmin)
	})

	t.Run("Login_Failure_NotSuperAdmin", func(t *testing.T) {
		svc := newService(&model.User{
			ID:        "user::1",
			Email:     "asha@example.com",
			Password:  hashPassword(t, "s3cret-pass"),
			RoleIDs:   []string{"role::support"},
			Auditable: model.Auditable{IsActive: true},
		})

		_, err := svc.Login(ctx, "asha@example.com", "s3cret-pass")

		assert.ErrorIs(t, err, apperrors.ErrNotSuperAdmin)
	})
}

func TestAuthService_InstitutionLogin(t *testing.T) {
	ctx := context.Background()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	newService := func(user *model.InstitutionUser, institutionActive bool) *service.AuthService {
		return service.NewAuthService(
			&fakeUserReader{},
			&fakeInstitutionUserReader{user: user},
			newFakeInstitutionRepo(model.Institution{
				ID:        "inst::1",
				Name:      "Crestwood College",
				Type:      model.InstitutionTypeCollege,
				Auditable: model.Auditable{IsActive: institutionActive},
			}),
			&fakeRoleReader{},
			&fakeInstitutionRoleReader{roles: map[string]model.InstitutionRole{
				"inst-role::1": {ID: "inst-role::1", InstitutionID: "inst::1", Name: "Registrar"},
			}},
			jwtManager,
		)
	}

	t.Run("InstitutionLogin_Success", func(t *testing.T) {
		svc := newService(&model.InstitutionUser{
			ID:            "inst-user::1",
			FirstName:     "Ravi",
			Email:         "ravi@crestwood.edu",
			Password:      hashPassword(t, "s3cret-pass"),
			InstitutionID: "inst::1",
			RoleIDs:       []string{"inst-role::1"},
			Auditable:     model.Auditable{IsActive: true},
		}, true)

		result, err := svc.InstitutionLogin(ctx, "ravi@crestwood.edu", "s3cret-pass")

		require.NoError(t, err)
		assert.Empty(t, result.InstitutionUser.Password)
		require.Len(t, result.InstitutionUser.Roles, 1)
		assert.Equal(t, "Registrar", result.InstitutionUser.Roles[0].Name)

		claims, err := jwtManager.VerifyToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, "inst-user::1", claims.UserID)
		assert.Equal(t, auth.ScopeInstitution, claims.Scope)
		assert.Equal(t, "inst::1", claims.InstitutionID)
	})

	t.Run("InstitutionLogin_Failure_InactiveUser", func(t *testing.T) {
		svc := newService(&model.InstitutionUser{
			ID:            "inst-user::1",
			Email:         "ravi@crestwood.edu",
			Password:      hashPassword(t, "s3cret-pass"),
			InstitutionID: "inst::1",
		}, true)

		_, err := svc.InstitutionLogin(ctx, "ravi@crestwood.edu", "s3cret-pass")

		assert.ErrorIs(t, err, apperrors.ErrPrincipalInactive)
	})

	t.Run("InstitutionLogin_Failure_InactiveInstitution", func(t *testing.T) {
		svc := newService(&model.InstitutionUser{
			ID:            "inst-user::1",
			Email:         "ravi@crestwood.edu",
			Password:      hashPassword(t, "s3cret-pass"),
			InstitutionID: "inst::1",
			Auditable:     model.Auditable{IsActive: true},
		}, false)

		_, err := svc.InstitutionLogin(ctx, "ravi@crestwood.edu", "s3cret-pass")

		assert.ErrorIs(t, err, apperrors.ErrInstitutionInactive)
	})
}
