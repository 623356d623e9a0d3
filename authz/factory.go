// authz/factory.go
package authz

import (
	"context"

	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
	"go.uber.org/zap"
)

// SystemRoleLoader resolves global roles, with permissions populated, by ID.
type SystemRoleLoader interface {
	GetRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.Role, error)
}

// InstitutionRoleLoader resolves active institution roles, with permissions
// populated, by ID.
type InstitutionRoleLoader interface {
	GetActiveRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.InstitutionRole, error)
}

// SystemAbilityFactory builds abilities for global principals from the
// permissions attached to their roles. Lookup failures produce an empty
// (deny-all) ability rather than an error: the enforcement path never
// grants on failure.
type SystemAbilityFactory struct {
	roles SystemRoleLoader
}

func NewSystemAbilityFactory(roles SystemRoleLoader) *SystemAbilityFactory {
	return &SystemAbilityFactory{roles: roles}
}

// AbilityForUser assembles the user's ability from every permission of every
// role assigned to the user. Grants are unconditioned: global principals are
// not tenant-scoped.
func (f *SystemAbilityFactory) AbilityForUser(ctx context.Context, user *model.User) *Ability {
	builder := NewAbilityBuilder()
	if user == nil || len(user.RoleIDs) == 0 {
		return builder.Build()
	}

	roles, err := f.roles.GetRolesByIDs(ctx, user.RoleIDs)
	if err != nil {
		logger.Error("Failed to load roles while building ability",
			zap.String("userID", user.ID),
			zap.Error(err))
		return builder.Build()
	}

	for _, role := range roles {
		for _, perm := range role.Permissions {
			action, ok := model.ParseAction(string(perm.Action))
			if !ok {
				logger.Warn("Skipping permission with unknown action",
					zap.String("permissionID", perm.ID),
					zap.String("action", string(perm.Action)))
				continue
			}
			builder.Grant(action, perm.Resource, nil)
		}
	}
	return builder.Build()
}

// InstitutionAbilityFactory builds abilities for institution principals.
// Every grant carries an institutionId condition pinning it to the
// principal's own institution.
type InstitutionAbilityFactory struct {
	roles InstitutionRoleLoader
}

func NewInstitutionAbilityFactory(roles InstitutionRoleLoader) *InstitutionAbilityFactory {
	return &InstitutionAbilityFactory{roles: roles}
}

func (f *InstitutionAbilityFactory) AbilityForUser(ctx context.Context, user *model.InstitutionUser) *Ability {
	builder := NewAbilityBuilder()
	if user == nil || len(user.RoleIDs) == 0 {
		return builder.Build()
	}

	roles, err := f.roles.GetActiveRolesByIDs(ctx, user.RoleIDs)
	if err != nil {
		logger.Error("Failed to load institution roles while building ability",
			zap.String("institutionUserID", user.ID),
			zap.String("institutionID", user.InstitutionID),
			zap.Error(err))
		return builder.Build()
	}

	condition := map[string]interface{}{"institutionId": user.InstitutionID}
	for _, role := range roles {
		for _, perm := range role.Permissions {
			action, ok := model.ParseAction(string(perm.Action))
			if !ok {
				logger.Warn("Skipping permission with unknown action",
					zap.String("permissionID", perm.ID),
					zap.String("action", string(perm.Action)))
				continue
			}
			builder.Grant(action, perm.Resource, condition)
		}
	}
	return builder.Build()
}
