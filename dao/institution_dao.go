// dao/institution_dao.go
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

type InstitutionDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewInstitutionDAO(driver neo4j.Driver, auditService audit.Service) *InstitutionDAO {
	dao := &InstitutionDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Institution", zap.Error(err))
	}
	return dao
}

func (dao *InstitutionDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Institution ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_institution_id IF NOT EXISTS
        FOR (i:` + campus_neo4j.LabelInstitution + `) REQUIRE i.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Institution ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *InstitutionDAO) CreateInstitution(ctx context.Context, institution model.Institution) (string, error) {
	start := time.Now()
	logger.Info("Creating new institution", zap.String("institutionName", institution.Name))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if institution.ID == "" {
		institution.ID = model.NewID(model.PrefixInstitution)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (i:` + campus_neo4j.LabelInstitution + ` {id: $id})
        ON CREATE SET
            i.name = $name,
            i.address = $address,
            i.phone = $phone,
            i.email = $email,
            i.website = $website,
            i.type = $type,
            i.isActive = $isActive,
            i.createdBy = $createdBy,
            i.createdAt = $createdAt,
            i.updatedAt = $updatedAt
        RETURN i.id as id
        `
		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":        institution.ID,
			"name":      institution.Name,
			"address":   institution.Address,
			"phone":     institution.Phone,
			"email":     institution.Email,
			"website":   institution.Website,
			"type":      string(institution.Type),
			"isActive":  true,
			"createdBy": requestingUserID(ctx),
			"createdAt": now,
			"updatedAt": now,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create institution query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create institution",
			zap.Error(err),
			zap.String("institutionName", institution.Name),
			zap.Duration("duration", duration))
		return "", err
	}

	institutionID := fmt.Sprintf("%v", result)
	logger.Info("Institution created successfully",
		zap.String("institutionID", institutionID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_INSTITUTION",
		EntityType:    "Institution",
		EntityID:      institutionID,
		InstitutionID: institutionID,
		ChangeDetails: createInstitutionChangeDetails(nil, &institution),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return institutionID, nil
}

func (dao *InstitutionDAO) UpdateInstitution(ctx context.Context, institution model.Institution) (*model.Institution, error) {
	start := time.Now()
	logger.Info("Updating institution", zap.String("institutionID", institution.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldInstitution, err := dao.GetInstitution(ctx, institution.ID)
	if err != nil {
		return nil, err
	}

	var updatedInstitution *model.Institution
	_, err = session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $id})
        WHERE i.deletedAt IS NULL
        SET i += $props
        RETURN i
        `
		params := map[string]interface{}{
			"id": institution.ID,
			"props": map[string]interface{}{
				campus_neo4j.AttrName:      institution.Name,
				"address":                  institution.Address,
				"phone":                    institution.Phone,
				campus_neo4j.AttrEmail:     institution.Email,
				"website":                  institution.Website,
				"type":                     string(institution.Type),
				"lastUpdatedBy":            requestingUserID(ctx),
				campus_neo4j.AttrUpdatedAt: time.Now().Format(time.RFC3339),
			},
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update institution query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedInstitution = mapNodeToInstitution(node)
			return nil, nil
		}
		return nil, apperrors.ErrInstitutionNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update institution",
			zap.Error(err),
			zap.String("institutionID", institution.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Institution updated successfully",
		zap.String("institutionID", institution.ID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_INSTITUTION",
		EntityType:    "Institution",
		EntityID:      institution.ID,
		InstitutionID: institution.ID,
		ChangeDetails: createInstitutionChangeDetails(oldInstitution, updatedInstitution),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedInstitution, nil
}

// SetActive flips the activation flag. The caller decides whether the
// transition is legal.
func (dao *InstitutionDAO) SetActive(ctx context.Context, institutionID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $id})
        WHERE i.deletedAt IS NULL
        SET i.isActive = $active,
            i.lastUpdatedBy = $updatedBy,
            i.updatedAt = $updatedAt
        RETURN i.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":        institutionID,
			"active":    active,
			"updatedBy": requestingUserID(ctx),
			"updatedAt": time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrInstitutionNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to set institution active flag",
			zap.Error(err),
			zap.String("institutionID", institutionID),
			zap.Bool("active", active))
		return err
	}

	action := "DEACTIVATE_INSTITUTION"
	if active {
		action = "ACTIVATE_INSTITUTION"
	}
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        action,
		EntityType:    "Institution",
		EntityID:      institutionID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

// SoftDeleteInstitution stamps the institution deleted.
func (dao *InstitutionDAO) SoftDeleteInstitution(ctx context.Context, institutionID string) error {
	start := time.Now()
	logger.Info("Deleting institution", zap.String("institutionID", institutionID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $id})
        WHERE i.deletedAt IS NULL
        SET i.deletedAt = $deletedAt,
            i.deletedBy = $deletedBy,
            i.isActive = false
        RETURN i.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":        institutionID,
			"deletedAt": time.Now().Format(time.RFC3339),
			"deletedBy": requestingUserID(ctx),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrInstitutionNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete institution",
			zap.Error(err),
			zap.String("institutionID", institutionID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Institution deleted successfully",
		zap.String("institutionID", institutionID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "DELETE_INSTITUTION",
		EntityType:    "Institution",
		EntityID:      institutionID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *InstitutionDAO) GetInstitution(ctx context.Context, institutionID string) (*model.Institution, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $id})
    WHERE i.deletedAt IS NULL
    RETURN i
    `
	result, err := session.Run(query, map[string]interface{}{"id": institutionID})
	if err != nil {
		logger.Error("Failed to execute get institution query", zap.Error(err), zap.String("institutionID", institutionID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToInstitution(node), nil
	}
	return nil, apperrors.ErrInstitutionNotFound
}

func (dao *InstitutionDAO) ListInstitutions(ctx context.Context, limit, offset int) ([]*model.Institution, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (i:` + campus_neo4j.LabelInstitution + `)
    WHERE i.deletedAt IS NULL
    RETURN i
    ORDER BY i.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		logger.Error("Failed to execute list institutions query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, apperrors.ErrDatabaseOperation
	}

	var institutions []*model.Institution
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		institutions = append(institutions, mapNodeToInstitution(node))
	}

	logger.Info("Institutions listed successfully",
		zap.Int("count", len(institutions)),
		zap.Duration("duration", time.Since(start)))
	return institutions, nil
}

// ExistsByName reports whether an institution with the given name exists.
// Soft-deleted institutions do not count.
func (dao *InstitutionDAO) ExistsByName(ctx context.Context, name string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (i:` + campus_neo4j.LabelInstitution + ` {name: $name})
    WHERE i.deletedAt IS NULL
    RETURN count(i) as count
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

// Helper function to map Neo4j Node to Institution struct
func mapNodeToInstitution(node neo4j.Node) *model.Institution {
	props := node.Props
	institution := &model.Institution{
		ID:      stringValue(props, "id"),
		Name:    stringValue(props, "name"),
		Address: stringValue(props, "address"),
		Phone:   stringValue(props, "phone"),
		Email:   stringValue(props, "email"),
		Website: stringValue(props, "website"),
		Type:    model.InstitutionType(stringValue(props, "type")),
	}
	mapAuditable(props, &institution.Auditable)
	return institution
}

// Helper function to create change details for audit log
func createInstitutionChangeDetails(oldInstitution, newInstitution *model.Institution) json.RawMessage {
	changes := make(map[string]interface{})
	if oldInstitution == nil {
		changes["action"] = "created"
	} else if newInstitution == nil {
		changes["action"] = "deleted"
	} else {
		changes["action"] = "updated"
		if oldInstitution.Name != newInstitution.Name {
			changes["name"] = map[string]string{"old": oldInstitution.Name, "new": newInstitution.Name}
		}
		if oldInstitution.Email != newInstitution.Email {
			changes["email"] = map[string]string{"old": oldInstitution.Email, "new": newInstitution.Email}
		}
		if oldInstitution.Type != newInstitution.Type {
			changes["type"] = map[string]string{"old": string(oldInstitution.Type), "new": string(newInstitution.Type)}
		}
	}
	changeDetails, _ := json.Marshal(changes)
	return changeDetails
}
