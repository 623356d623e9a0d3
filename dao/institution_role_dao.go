// dao/institution_role_dao.go
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
)

type InstitutionRoleDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewInstitutionRoleDAO(driver neo4j.Driver, auditService audit.Service) *InstitutionRoleDAO {
	dao := &InstitutionRoleDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for InstitutionRole", zap.Error(err))
	}
	return dao
}

func (dao *InstitutionRoleDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on InstitutionRole ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_institution_role_id IF NOT EXISTS
        FOR (r:` + campus_neo4j.LabelInstitutionRole + `) REQUIRE r.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on InstitutionRole ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *InstitutionRoleDAO) CreateRole(ctx context.Context, role model.InstitutionRole) (string, error) {
	start := time.Now()
	logger.Info("Creating new institution role",
		zap.String("roleName", role.Name),
		zap.String("institutionID", role.InstitutionID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if role.ID == "" {
		role.ID = model.NewID(model.PrefixInstitutionRole)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (r:` + campus_neo4j.LabelInstitutionRole + ` {id: $id})
        ON CREATE SET
            r.name = $name,
            r.description = $description,
            r.institutionID = $institutionID,
            r.isActive = $isActive,
            r.createdBy = $createdBy,
            r.createdAt = $createdAt,
            r.updatedAt = $updatedAt
        WITH r
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $institutionID})
        MERGE (r)-[:` + campus_neo4j.RelBelongsTo + `]->(i)
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
			"id":            role.ID,
			"name":          role.Name,
			"description":   role.Description,
			"institutionID": role.InstitutionID,
			"isActive":      true,
			"createdBy":     requestingUserID(ctx),
			"createdAt":     now,
			"updatedAt":     now,
		}
		if len(role.PermissionIDs) > 0 {
			params["permissions"] = role.PermissionIDs
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create institution role query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInstitutionNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create institution role",
			zap.Error(err),
			zap.String("roleName", role.Name),
			zap.Duration("duration", duration))
		return "", err
	}

	roleID := fmt.Sprintf("%v", result)
	logger.Info("Institution role created successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_INSTITUTION_ROLE",
		EntityType:    "InstitutionRole",
		EntityID:      roleID,
		InstitutionID: role.InstitutionID,
		ChangeDetails: createInstitutionRoleChangeDetails(nil, &role),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return roleID, nil
}

func (dao *InstitutionRoleDAO) UpdateRole(ctx context.Context, role model.InstitutionRole) (*model.InstitutionRole, error) {
	start := time.Now()
	logger.Info("Updating institution role", zap.String("roleID", role.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldRole, err := dao.GetRoleInInstitution(ctx, role.InstitutionID, role.ID)
	if err != nil {
		return nil, err
	}

	var updatedRole *model.InstitutionRole
	_, err = session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {id: $id, institutionID: $institutionID})
        WHERE r.deletedAt IS NULL
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
			"id":            role.ID,
			"institutionID": role.InstitutionID,
			"props": map[string]interface{}{
				campus_neo4j.AttrName:        role.Name,
				campus_neo4j.AttrDescription: role.Description,
				"lastUpdatedBy":              requestingUserID(ctx),
				campus_neo4j.AttrUpdatedAt:   time.Now().Format(time.RFC3339),
			},
			"permissions": role.PermissionIDs,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update institution role query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedRole = mapNodeToInstitutionRole(node)
			updatedRole.PermissionIDs = role.PermissionIDs
			return nil, nil
		}
		return nil, apperrors.ErrInstitutionRoleNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update institution role",
			zap.Error(err),
			zap.String("roleID", role.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Institution role updated successfully",
		zap.String("roleID", role.ID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_INSTITUTION_ROLE",
		EntityType:    "InstitutionRole",
		EntityID:      role.ID,
		InstitutionID: role.InstitutionID,
		ChangeDetails: createInstitutionRoleChangeDetails(oldRole, updatedRole),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedRole, nil
}

// SetActive flips the activation flag. The caller decides whether the
// transition is legal.
func (dao *InstitutionRoleDAO) SetActive(ctx context.Context, institutionID, roleID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {id: $id, institutionID: $institutionID})
        WHERE r.deletedAt IS NULL
        SET r.isActive = $active,
            r.lastUpdatedBy = $updatedBy,
            r.updatedAt = $updatedAt
        RETURN r.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            roleID,
			"institutionID": institutionID,
			"active":        active,
			"updatedBy":     requestingUserID(ctx),
			"updatedAt":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrInstitutionRoleNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to set institution role active flag",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Bool("active", active))
		return err
	}

	action := "DEACTIVATE_INSTITUTION_ROLE"
	if active {
		action = "ACTIVATE_INSTITUTION_ROLE"
	}
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        action,
		EntityType:    "InstitutionRole",
		EntityID:      roleID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

// SoftDeleteRole stamps the role deleted. The node and its relationships
// stay in place for audit history; every read path filters them out.
func (dao *InstitutionRoleDAO) SoftDeleteRole(ctx context.Context, institutionID, roleID string) error {
	start := time.Now()
	logger.Info("Deleting institution role", zap.String("roleID", roleID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {id: $id, institutionID: $institutionID})
        WHERE r.deletedAt IS NULL
        SET r.deletedAt = $deletedAt,
            r.deletedBy = $deletedBy,
            r.isActive = false
        RETURN r.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            roleID,
			"institutionID": institutionID,
			"deletedAt":     time.Now().Format(time.RFC3339),
			"deletedBy":     requestingUserID(ctx),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrInstitutionRoleNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete institution role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Institution role deleted successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "DELETE_INSTITUTION_ROLE",
		EntityType:    "InstitutionRole",
		EntityID:      roleID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

// GetRoleInInstitution fetches a role and verifies it belongs to the given
// institution in the same query.
func (dao *InstitutionRoleDAO) GetRoleInInstitution(ctx context.Context, institutionID, roleID string) (*model.InstitutionRole, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {id: $id, institutionID: $institutionID})
    WHERE r.deletedAt IS NULL
    OPTIONAL MATCH (r)-[:` + campus_neo4j.RelHasPermission + `]->(p:` + campus_neo4j.LabelPermission + `)
    RETURN r, collect(p) as permissions
    `
	result, err := session.Run(query, map[string]interface{}{
		"id":            roleID,
		"institutionID": institutionID,
	})
	if err != nil {
		logger.Error("Failed to execute get institution role query", zap.Error(err), zap.String("roleID", roleID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		values := result.Record().Values
		role := mapNodeToInstitutionRole(values[0].(neo4j.Node))
		attachInstitutionRolePermissions(role, values[1])
		return role, nil
	}
	return nil, apperrors.ErrInstitutionRoleNotFound
}

// GetActiveRolesByIDs resolves active roles with their permissions
// populated. Ability construction depends on the permissions being present;
// inactive and deleted roles contribute nothing.
func (dao *InstitutionRoleDAO) GetActiveRolesByIDs(ctx context.Context, roleIDs []string) ([]*model.InstitutionRole, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    UNWIND $ids AS roleID
    MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {id: roleID})
    WHERE r.deletedAt IS NULL AND r.isActive = true
    OPTIONAL MATCH (r)-[:` + campus_neo4j.RelHasPermission + `]->(p:` + campus_neo4j.LabelPermission + `)
    RETURN r, collect(p) as permissions
    `
	result, err := session.Run(query, map[string]interface{}{"ids": roleIDs})
	if err != nil {
		logger.Error("Failed to execute get active institution roles query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	var roles []*model.InstitutionRole
	for result.Next() {
		values := result.Record().Values
		role := mapNodeToInstitutionRole(values[0].(neo4j.Node))
		attachInstitutionRolePermissions(role, values[1])
		roles = append(roles, role)
	}
	return roles, nil
}

func (dao *InstitutionRoleDAO) ListRolesByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionRole, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {institutionID: $institutionID})
    WHERE r.deletedAt IS NULL
    OPTIONAL MATCH (r)-[:` + campus_neo4j.RelHasPermission + `]->(p:` + campus_neo4j.LabelPermission + `)
    RETURN r, collect(p) as permissions
    ORDER BY r.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"limit":         limit,
		"offset":        offset,
	})
	if err != nil {
		logger.Error("Failed to execute list institution roles query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, apperrors.ErrDatabaseOperation
	}

	var roles []*model.InstitutionRole
	for result.Next() {
		values := result.Record().Values
		role := mapNodeToInstitutionRole(values[0].(neo4j.Node))
		attachInstitutionRolePermissions(role, values[1])
		roles = append(roles, role)
	}

	logger.Info("Institution roles listed successfully",
		zap.String("institutionID", institutionID),
		zap.Int("count", len(roles)),
		zap.Duration("duration", time.Since(start)))
	return roles, nil
}

// ExistsByName reports whether an institution already has a role with the
// given name. Soft-deleted roles do not count.
func (dao *InstitutionRoleDAO) ExistsByName(ctx context.Context, institutionID, name string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {institutionID: $institutionID, name: $name})
    WHERE r.deletedAt IS NULL
    RETURN count(r) as count
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"name":          name,
	})
	if err != nil {
		return false, apperrors.ErrDatabaseOperation
	}
	if result.Next() {
		return result.Record().Values[0].(int64) > 0, nil
	}
	return false, nil
}

// CountUsersWithRole counts the institution users still referencing a role.
func (dao *InstitutionRoleDAO) CountUsersWithRole(ctx context.Context, roleID string) (int64, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelInstitutionUser + `)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelInstitutionRole + ` {id: $roleID})
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

// Helper function to map Neo4j Node to InstitutionRole struct
func mapNodeToInstitutionRole(node neo4j.Node) *model.InstitutionRole {
	props := node.Props
	role := &model.InstitutionRole{
		ID:            stringValue(props, "id"),
		Name:          stringValue(props, "name"),
		Description:   stringValue(props, "description"),
		InstitutionID: stringValue(props, "institutionID"),
	}
	mapAuditable(props, &role.Auditable)
	return role
}

func attachInstitutionRolePermissions(role *model.InstitutionRole, collected interface{}) {
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
func createInstitutionRoleChangeDetails(oldRole, newRole *model.InstitutionRole) json.RawMessage {
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
