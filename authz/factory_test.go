// authz/factory_test.go
package authz

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
	"github.com/campusmesh/campus/api/resource"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type fakeSystemRoleLoader struct {
	roles    []*model.Role
	err      error
	askedFor []string
}

func (f *fakeSystemRoleLoader) GetRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.Role, error) {
	f.askedFor = roleIDs
	return f.roles, f.err
}

type fakeInstitutionRoleLoader struct {
	roles []*model.InstitutionRole
	err   error
}

func (f *fakeInstitutionRoleLoader) GetActiveRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.InstitutionRole, error) {
	return f.roles, f.err
}

func TestSystemFactoryNilUserDeniesAll(t *testing.T) {
	factory := NewSystemAbilityFactory(&fakeSystemRoleLoader{})

	ability := factory.AbilityForUser(context.Background(), nil)
	assert.False(t, ability.Can(model.ActionRead, resource.Institution))
}

func TestSystemFactoryNoRolesShortCircuits(t *testing.T) {
	loader := &fakeSystemRoleLoader{}
	factory := NewSystemAbilityFactory(loader)

	ability := factory.AbilityForUser(context.Background(), &model.User{ID: "user::1"})
	assert.False(t, ability.Can(model.ActionRead, resource.Institution))
	assert.Nil(t, loader.askedFor)
}

func TestSystemFactoryLoadsByActualRoleIDs(t *testing.T) {
	loader := &fakeSystemRoleLoader{
		roles: []*model.Role{{
			ID: "role::admin",
			Permissions: []model.Permission{
				{Action: model.ActionRead, Resource: resource.Institution},
				{Action: model.ActionWrite, Resource: resource.Institution},
			},
		}},
	}
	factory := NewSystemAbilityFactory(loader)

	user := &model.User{ID: "user::1", RoleIDs: []string{"role::admin"}}
	ability := factory.AbilityForUser(context.Background(), user)

	assert.Equal(t, []string{"role::admin"}, loader.askedFor)
	assert.True(t, ability.Can(model.ActionRead, resource.Institution))
	assert.True(t, ability.Can(model.ActionWrite, resource.Institution))
	assert.False(t, ability.Can(model.ActionDelete, resource.Institution))
}

func TestSystemFactoryGrantsAreUnconditioned(t *testing.T) {
	loader := &fakeSystemRoleLoader{
		roles: []*model.Role{{
			ID:          "role::admin",
			Permissions: []model.Permission{{Action: model.ActionRead, Resource: resource.Institution}},
		}},
	}
	factory := NewSystemAbilityFactory(loader)

	ability := factory.AbilityForUser(context.Background(), &model.User{ID: "user::1", RoleIDs: []string{"role::admin"}})
	assert.Nil(t, ability.ConditionFor(model.ActionRead, resource.Institution))
}

func TestSystemFactoryFailsClosedOnLoaderError(t *testing.T) {
	loader := &fakeSystemRoleLoader{err: errors.New("connection refused")}
	factory := NewSystemAbilityFactory(loader)

	ability := factory.AbilityForUser(context.Background(), &model.User{ID: "user::1", RoleIDs: []string{"role::admin"}})
	assert.False(t, ability.Can(model.ActionRead, resource.Institution))
}

func TestSystemFactorySkipsUnknownActions(t *testing.T) {
	loader := &fakeSystemRoleLoader{
		roles: []*model.Role{{
			ID: "role::odd",
			Permissions: []model.Permission{
				{Action: "EXECUTE", Resource: resource.Academic},
				{Action: model.ActionRead, Resource: resource.Academic},
			},
		}},
	}
	factory := NewSystemAbilityFactory(loader)

	ability := factory.AbilityForUser(context.Background(), &model.User{ID: "user::1", RoleIDs: []string{"role::odd"}})
	assert.True(t, ability.Can(model.ActionRead, resource.Academic))
	assert.False(t, ability.Can("EXECUTE", resource.Academic))
}

func TestInstitutionFactoryConditionsEveryGrant(t *testing.T) {
	loader := &fakeInstitutionRoleLoader{
		roles: []*model.InstitutionRole{{
			ID:            "inst-role::teacher",
			InstitutionID: "inst::a",
			Permissions: []model.Permission{
				{Action: model.ActionRead, Resource: resource.Academic},
				{Action: model.ActionWrite, Resource: resource.Academic},
			},
		}},
	}
	factory := NewInstitutionAbilityFactory(loader)

	user := &model.InstitutionUser{ID: "inst-user::1", InstitutionID: "inst::a", RoleIDs: []string{"inst-role::teacher"}}
	ability := factory.AbilityForUser(context.Background(), user)

	assert.True(t, ability.Can(model.ActionRead, resource.Academic))
	assert.Equal(t, map[string]interface{}{"institutionId": "inst::a"},
		ability.ConditionFor(model.ActionRead, resource.Academic))
	assert.True(t, ability.CanRecord(model.ActionRead, resource.Academic,
		map[string]interface{}{"institutionId": "inst::a"}))
	assert.False(t, ability.CanRecord(model.ActionRead, resource.Academic,
		map[string]interface{}{"institutionId": "inst::b"}))
}

func TestInstitutionFactoryNoRolesShortCircuits(t *testing.T) {
	factory := NewInstitutionAbilityFactory(&fakeInstitutionRoleLoader{err: errors.New("should not be called")})

	user := &model.InstitutionUser{ID: "inst-user::1", InstitutionID: "inst::a"}
	ability := factory.AbilityForUser(context.Background(), user)
	assert.False(t, ability.Can(model.ActionRead, resource.Academic))
}

func TestInstitutionFactoryFailsClosedOnLoaderError(t *testing.T) {
	factory := NewInstitutionAbilityFactory(&fakeInstitutionRoleLoader{err: errors.New("connection refused")})

	user := &model.InstitutionUser{ID: "inst-user::1", InstitutionID: "inst::a", RoleIDs: []string{"inst-role::teacher"}}
	ability := factory.AbilityForUser(context.Background(), user)
	assert.False(t, ability.Can(model.ActionRead, resource.Academic))
}
