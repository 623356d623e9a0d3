// dao/permission_dao.go
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

type PermissionDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewPermissionDAO(driver neo4j.Driver, auditService audit.Service) *PermissionDAO {
	dao := &PermissionDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Permission", zap.Error(err))
	}
	return dao
}

func (dao *PermissionDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Permission ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_permission_id IF NOT EXISTS
        FOR (p:` + campus_neo4j.LabelPermission + `) REQUIRE p.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Permission ID", zap.Error(err))
		return err
	}
	return nil
}

// CreatePermission persists a new catalog entry. The slug is derived here so
// a stored permission can never carry a slug that disagrees with its
// resource and action.
func (dao *PermissionDAO) CreatePermission(ctx context.Context, permission model.Permission) (string, error) {
	start := time.Now()
	logger.Info("Creating new permission", zap.String("resource", permission.Resource), zap.String("action", string(permission.Action)))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if permission.ID == "" {
		permission.ID = model.NewID(model.PrefixPermission)
	}
	permission.Slug = model.ResolveSlug(permission.Resource, permission.Action)

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (p:` + campus_neo4j.LabelPermission + ` {id: $id})
        ON CREATE SET
            p.action = $action,
            p.resource = $resource,
            p.slug = $slug,
            p.createdAt = $createdAt,
            p.updatedAt = $updatedAt
        RETURN p.id as id
        `
		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":        permission.ID,
			"action":    string(permission.Action),
			"resource":  permission.Resource,
			"slug":      permission.Slug,
			"createdAt": now,
			"updatedAt": now,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create permission query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create permission",
			zap.Error(err),
			zap.String("slug", permission.Slug),
			zap.Duration("duration", duration))
		return "", err
	}

	permissionID := fmt.Sprintf("%v", result)
	logger.Info("Permission created successfully",
		zap.String("permissionID", permissionID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_PERMISSION",
		EntityType:    "Permission",
		EntityID:      permissionID,
		ChangeDetails: createPermissionChangeDetails(nil, &permission),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return permissionID, nil
}

// UpdatePermission rewrites resource and action and re-derives the slug.
func (dao *PermissionDAO) UpdatePermission(ctx context.Context, permission model.Permission) (*model.Permission, error) {
	start := time.Now()
	logger.Info("Updating permission", zap.String("permissionID", permission.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldPermission, err := dao.GetPermission(ctx, permission.ID)
	if err != nil {
		return nil, err
	}
	permission.Slug = model.ResolveSlug(permission.Resource, permission.Action)

	var updatedPermission *model.Permission
	_, err = session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + campus_neo4j.LabelPermission + ` {id: $id})
        SET p += $props
        RETURN p
        `
		params := map[string]interface{}{
			"id": permission.ID,
			"props": map[string]interface{}{
				"action":                   string(permission.Action),
				"resource":                 permission.Resource,
				"slug":                     permission.Slug,
				campus_neo4j.AttrUpdatedAt: time.Now().Format(time.RFC3339),
			},
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update permission query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedPermission = mapNodeToPermission(node)
			return nil, nil
		}
		return nil, apperrors.ErrPermissionNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update permission",
			zap.Error(err),
			zap.String("permissionID", permission.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Permission updated successfully",
		zap.String("permissionID", permission.ID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_PERMISSION",
		EntityType:    "Permission",
		EntityID:      permission.ID,
		ChangeDetails: createPermissionChangeDetails(oldPermission, updatedPermission),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedPermission, nil
}

func (dao *PermissionDAO) DeletePermission(ctx context.Context, permissionID string) error {
	start := time.Now()
	logger.Info("Deleting permission", zap.String("permissionID", permissionID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + campus_neo4j.LabelPermission + ` {id: $id})
        DETACH DELETE p
        `
		result, err := transaction.Run(query, map[string]interface{}{"id": permissionID})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, apperrors.ErrPermissionNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete permission",
			zap.Error(err),
			zap.String("permissionID", permissionID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Permission deleted successfully",
		zap.String("permissionID", permissionID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:  time.Now(),
		UserID:     requestingUserID(ctx),
		Action:     "DELETE_PERMISSION",
		EntityType: "Permission",
		EntityID:   permissionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return nil
}

func (dao *PermissionDAO) GetPermission(ctx context.Context, permissionID string) (*model.Permission, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + campus_neo4j.LabelPermission + ` {id: $id})
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{"id": permissionID})
	if err != nil {
		logger.Error("Failed to execute get permission query", zap.Error(err), zap.String("permissionID", permissionID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToPermission(node), nil
	}
	return nil, apperrors.ErrPermissionNotFound
}

// GetPermissionBySlug resolves a catalog entry by its derived slug. Used by
// the conflict checks: two permissions may never share a slug.
func (dao *PermissionDAO) GetPermissionBySlug(ctx context.Context, slug string) (*model.Permission, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + campus_neo4j.LabelPermission + ` {slug: $slug})
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{"slug": slug})
	if err != nil {
		logger.Error("Failed to execute get permission by slug query", zap.Error(err), zap.String("slug", slug))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToPermission(node), nil
	}
	return nil, apperrors.ErrPermissionNotFound
}

func (dao *PermissionDAO) GetPermissionsByIDs(ctx context.Context, permissionIDs []string) ([]model.Permission, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    UNWIND $ids AS permissionID
    MATCH (p:` + campus_neo4j.LabelPermission + ` {id: permissionID})
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{"ids": permissionIDs})
	if err != nil {
		logger.Error("Failed to execute get permissions by ids query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	var permissions []model.Permission
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		permissions = append(permissions, *mapNodeToPermission(node))
	}
	return permissions, nil
}

func (dao *PermissionDAO) ListPermissions(ctx context.Context, limit int, offset int) ([]*model.Permission, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + campus_neo4j.LabelPermission + `)
    RETURN p
    ORDER BY p.slug
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		logger.Error("Failed to execute list permissions query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, apperrors.ErrDatabaseOperation
	}

	var permissions []*model.Permission
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		permissions = append(permissions, mapNodeToPermission(node))
	}

	logger.Info("Permissions listed successfully",
		zap.Int("count", len(permissions)),
		zap.Duration("duration", time.Since(start)))
	return permissions, nil
}

// Helper function to map Neo4j Node to Permission struct
func mapNodeToPermission(node neo4j.Node) *model.Permission {
	props := node.Props
	permission := &model.Permission{
		ID:       stringValue(props, "id"),
		Action:   model.Action(stringValue(props, "action")),
		Resource: stringValue(props, "resource"),
		Slug:     stringValue(props, "slug"),
	}
	if v, ok := props["createdAt"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			permission.CreatedAt = t
		}
	}
	if v, ok := props["updatedAt"].(string); ok {
		if t, err := helper_util.ParseTime(v); err == nil {
			permission.UpdatedAt = t
		}
	}
	return permission
}

// Helper function to create change details for audit log
func createPermissionChangeDetails(oldPermission, newPermission *model.Permission) json.RawMessage {
	changes := make(map[string]interface{})
	if oldPermission == nil {
		changes["action"] = "created"
	} else if newPermission == nil {
		changes["action"] = "deleted"
	} else {
		changes["action"] = "updated"
		if oldPermission.Slug != newPermission.Slug {
			changes["slug"] = map[string]string{"old": oldPermission.Slug, "new": newPermission.Slug}
		}
		if oldPermission.Resource != newPermission.Resource {
			changes["resource"] = map[string]string{"old": oldPermission.Resource, "new": newPermission.Resource}
		}
		if oldPermission.Action != newPermission.Action {
			changes["actionField"] = map[string]string{"old": string(oldPermission.Action), "new": string(newPermission.Action)}
		}
	}
	changeDetails, _ := json.Marshal(changes)
	return changeDetails
}
