// dao/role_dao.go
package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/audit"
	apperrors "github.com/campusmesh/campus/api/errors"
	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
	campus_neo4j "github.com/campusmesh/campus/api/model/neo4j"
	helper_util "github.com/campusmesh/campus/api/util/helper"
)

type RoleDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewRoleDAO(driver neo4j.Driver, auditService audit.Service) *RoleDAO {
	dao := &RoleDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Role", zap.Error(err))
	}
	return dao
}

func (dao *RoleDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Role ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_role_id IF NOT EXISTS
        FOR (r:` + campus_neo4j.LabelRole + `) REQUIRE r.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Role ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *RoleDAO) CreateRole(ctx context.Context, role model.Role) (string, error) {
	start := time.Now()
	logger.Info("Creating new role", zap.String("roleName", role.Name))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if role.ID == "" {
		role.ID = model.NewID(model.PrefixRole)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (r:` + campus_neo4j.LabelRole + ` {id: $id})
        ON CREATE SET
            r.name = $name,
            r.description = $description,
            r.createdAt = $createdAt,
            r.updatedAt = $updatedAt
        `
		if len(role.PermissionIDs) > 0 {
			query += `
            WITH r
            UNWIND $permissions AS permissionID
            MATCH (p:` + campus_neo4j.LabelPermission + ` {id: permissionID})
            MERGE (r)-[:` + campus_neo4j.RelHasPermission + `]->(p)
            `
		}
		query += `
        RETURN r.id as id
        `

		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":          role.ID,
			"name":        role.Name,
			"description": role.Description,
			"createdAt":   now,
			"updatedAt":   now,
		}
		if len(role.PermissionIDs) > 0 {
			params["permissions"] = role.PermissionIDs
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create role query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create role",
			zap.Error(err),
			zap.String("roleName", role.Name),
			zap.Duration("duration", duration))
		return "", err
	}

	roleID := fmt.Sprintf("%v", result)
	logger.Info("Role created successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_ROLE",
		EntityType:    "Role",
		EntityID:      roleID,
		ChangeDetails: createRoleChangeDetails(nil, &role),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return roleID, nil
}

func (dao *RoleDAO) UpdateRole(ctx context.Context, role model.Role) (*model.Role, error) {
	start := time.Now()
	logger.Info("Updating role", zap.String("roleID", role.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldRole, err := dao.GetRole(ctx, role.ID)
	if err != nil {
		return nil, err
	}

	var updatedRole *model.Role
	_, err = session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:` + campus_neo4j.LabelRole + ` {id: $id})
        SET r += $props
        WITH r
        OPTIONAL MATCH (r)-[oldPermRel:` + campus_neo4j.RelHasPermission + `]->(:` + campus_neo4j.LabelPermission + `)
        DELETE oldPermRel
        WITH r
        UNWIND $permissions AS permissionID
        MATCH (p:` + campus_neo4j.LabelPermission + ` {id: permissionID})
        MERGE (r)-[:` + campus_neo4j.RelHasPermission + `]->(p)
        RETURN DISTINCT r
        `
		params := map[string]interface{}{
			"id": role.ID,
			"props": map[string]interface{}{
				campus_neo4j.AttrName:        role.Name,
				campus_neo4j.AttrDescription: role.Description,
				campus_neo4j.AttrUpdatedAt:   time.Now().Format(time.RFC3339),
			},
			"permissions": role.PermissionIDs,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update role query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedRole = mapNodeToRole(node)
			updatedRole.PermissionIDs = role.PermissionIDs
			return nil, nil
		}
		return nil, apperrors.ErrRoleNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update role",
			zap.Error(err),
			zap.String("roleID", role.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Role updated successfully",
		zap.String("roleID", role.ID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_ROLE",
		EntityType:    "Role",
		EntityID:      role.ID,
		ChangeDetails: createRoleChangeDetails(oldRole, updatedRole),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedRole, nil
}

func (dao *RoleDAO) DeleteRole(ctx context.Context, roleID string) error {
	start := time.Now()
	logger.Info("Deleting role", zap.String("roleID", roleID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:` + campus_neo4j.LabelRole + ` {id: $id})
        DETACH DELETE r
        `
		result, err := transaction.Run(query, map[string]interface{}{"id": roleID})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Role deleted successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:  time.Now(),
		UserID:     requestingUserID(ctx),
		Action:     "DELETE_ROLE",
		EntityType: "Role",
		EntityID:   roleID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return nil
}

func (dao *RoleDAO) GetRole(ctx context.Context, roleID string) (*model.Role, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + campus_neo4j.LabelRole + ` {id: $id})
    OPTIONAL MATCH (r)-[:` + campus_neo4j.RelHasPermission + `]->(p:` + campus_neo4j.LabelPermission + `)
    RETURN r, collect(p) as permissions
    `
	result, err := session.Run(query, map[string]interface{}{"id": roleID})
	if err != nil {
		logger.Error("Failed to execute get role query", zap.Error(err), zap.String("roleID", roleID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		values := result.Record().Values
		role := mapNodeToRole(values[0].(neo4j.Node))
		attachRolePermissions(role, values[1])
		return role, nil
	}
	return nil, apperrors.ErrRoleNotFound
}

// GetRoleByName resolves a role by its unique name.
func (dao *RoleDAO) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + campus_neo4j.LabelRole + ` {name: $name})
    OPTIONAL MATCH (r)-[:` + campus_neo4j.RelHasPermission + `]->(p:` + campus_neo4j.LabelPermission + `)
    RETURN r, collect(p) as permissions
    `
	result, err := session.Run(query, map[string]interface{}{"name": name})
	if err != nil {
		logger.Error("Failed to execute get role by name query", zap.Error(err), zap.String("name", name))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		values := result.Record().Values
		role := mapNodeToRole(values[0].(neo4j.Node))
		attachRolePermissions(role, values[1])
		return role, nil
	}
	return nil, apperrors.ErrRoleNotFound
}

// GetRolesByIDs resolves roles with their permissions populated. Ability
// construction depends on the permissions being present.
func (dao *RoleDAO) GetRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.Role, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    UNWIND $ids AS roleID
    MATCH (r:` + campus_neo4j.LabelRole + ` {id: roleID})
    OPTIONAL MATCH (r)-[:` + campus_neo4j.RelHasPermission + `]->(p:` + campus_neo4j.LabelPermission + `)
    RETURN r, collect(p) as permissions
    `
	result, err := session.Run(query, map[string]interface{}{"ids": roleIDs})
	if err != nil {
		logger.Error("Failed to execute get roles by ids query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	var roles []*model.Role
	for result.Next() {
		values := result.Record().Values
		role := mapNodeToRole(values[0].(neo4j.Node))
		attachRolePermissions(role, values[1])
		roles = append(roles, role)
	}
	return roles, nil
}

func (dao *RoleDAO) ListRoles(ctx context.Context, limit int, offset int) ([]*model.Role, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + campus_neo4j.LabelRole + `)
    OPTIONAL MATCH (r)-[:` + campus_neo4j.RelHasPermission + `]->(p:` + campus_neo4j.LabelPermission + `)
    RETURN r, collect(p) as permissions
    ORDER BY r.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		logger.Error("Failed to execute list roles query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, apperrors.ErrDatabaseOperation
	}

	var roles []*model.Role
	for result.Next() {
		values := result.Record().Values
		role := mapNodeToRole(values[0].(neo4j.Node))
		attachRolePermissions(role, values[1])
		roles = append(roles, role)
	}

	logger.Info("Roles listed successfully",
		zap.Int("count", len(roles)),
		zap.Duration("duration", time.Since(start)))
	return roles, nil
}

// ExistsByName reports whether a role with the given name already exists.
func (dao *RoleDAO) ExistsByName(ctx context.Context, name string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + campus_neo4j.LabelRole + ` {name: $name})
    RETURN count(r) as count
    `
	result, err := session.Run(query, map[string]interface{}{"name": name})
	if err != nil {
		return false, apperrors.ErrDatabaseOperation
	}
	if result.Next() {
		return result.Record().Values[0].(int64) > 0, nil
	}
	return false, nil
}

// CountUsersWithRole counts the users still referencing a role. A role with
// a non-zero count cannot be deleted.
func (dao *RoleDAO) CountUsersWithRole(ctx context.Context, roleID string) (int64, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelUser + `)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelRole + ` {id: $roleID})
    WHERE u.deletedAt IS NULL
    RETURN count(u) as count
    `
	result, err := session.Run(query, map[string]interface{}{"roleID": roleID})
	if err != nil {
		return 0, apperrors.ErrDatabaseOperation
	}
	if result.Next() {
		return result.Record().Values[0].(int64), nil
	}
	return 0, nil
}

// Helper function to map Neo4j Node to Role struct
func mapNodeToRole(node neo4j.Node) *model.Role {
	props := node.Props
	role := &model.Role{
		ID:          stringValue(props, "id"),
		Name:        stringValue(props, "name"),
		Description: stringValue(props, "description"),
	}
	if v, ok := props["createdAt"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			role.CreatedAt = t
		}
	}
	if v, ok := props["updatedAt"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			role.UpdatedAt = t
		}
	}
	return role
}

func attachRolePermissions(role *model.Role, collected interface{}) {
	nodes, ok := collected.([]interface{})
	if !ok {
		return
	}
	for _, raw := range nodes {
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		permission := mapNodeToPermission(node)
		role.Permissions = append(role.Permissions, *permission)
		role.PermissionIDs = append(role.PermissionIDs, permission.ID)
	}
}

// Helper function to create change details for audit log
func createRoleChangeDetails(oldRole, newRole *model.Role) json.RawMessage {
	changes := make(map[string]interface{})
	if oldRole == nil {
		changes["action"] = "created"
	} else if newRole == nil {
		changes["action"] = "deleted"
	} else {
		changes["action"] = "updated"
		if oldRole.Name != newRole.Name {
			changes["name"] = map[string]string{"old": oldRole.Name, "new": newRole.Name}
		}
		if oldRole.Description != newRole.Description {
			changes["description"] = map[string]string{"old": oldRole.Description, "new": newRole.Description}
		}
	}
	changeDetails, _ := json.Marshal(changes)
	return changeDetails
}
