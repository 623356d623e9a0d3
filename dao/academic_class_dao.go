// dao/academic_class_dao.go
package dao

import (
	"context"
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

type AcademicClassDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewAcademicClassDAO(driver neo4j.Driver, auditService audit.Service) *AcademicClassDAO {
	dao := &AcademicClassDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for AcademicClass", zap.Error(err))
	}
	return dao
}

func (dao *AcademicClassDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_academic_class_id IF NOT EXISTS
        FOR (c:` + campus_neo4j.LabelAcademicClass + `) REQUIRE c.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on AcademicClass ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *AcademicClassDAO) CreateClass(ctx context.Context, class model.AcademicClass) (string, error) {
	start := time.Now()
	logger.Info("Creating new academic class",
		zap.String("className", class.Name),
		zap.String("institutionID", class.InstitutionID),
		zap.String("academicYear", class.AcademicYear))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if class.ID == "" {
		class.ID = model.NewID(model.PrefixAcademicClass)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (c:` + campus_neo4j.LabelAcademicClass + ` {id: $id})
        ON CREATE SET
            c.name = $name,
            c.institutionID = $institutionID,
            c.programID = $programID,
            c.academicYear = $academicYear,
            c.startDate = $startDate,
            c.endDate = $endDate,
            c.isActive = $isActive,
            c.createdBy = $createdBy,
            c.createdAt = $createdAt,
            c.updatedAt = $updatedAt
        WITH c
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $institutionID})
        MERGE (c)-[:` + campus_neo4j.RelBelongsTo + `]->(i)
        `
		if class.ProgramID != "" {
			query += `
            WITH c
            MATCH (p:` + campus_neo4j.LabelAcademicProgram + ` {id: $programID})
            MERGE (c)-[:` + campus_neo4j.RelPartOf + `]->(p)
            `
		}
		query += `
        RETURN c.id as id
        `

		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":            class.ID,
			"name":          class.Name,
			"institutionID": class.InstitutionID,
			"programID":     class.ProgramID,
			"academicYear":  class.AcademicYear,
			"startDate":     formatNullableTime(class.StartDate),
			"endDate":       formatNullableTime(class.EndDate),
			"isActive":      true,
			"createdBy":     requestingUserID(ctx),
			"createdAt":     now,
			"updatedAt":     now,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create class query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInstitutionNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create academic class",
			zap.Error(err),
			zap.String("className", class.Name),
			zap.Duration("duration", duration))
		return "", err
	}

	classID := fmt.Sprintf("%v", result)
	logger.Info("Academic class created successfully",
		zap.String("classID", classID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_ACADEMIC_CLASS",
		EntityType:    "AcademicClass",
		EntityID:      classID,
		InstitutionID: class.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return classID, nil
}

func (dao *AcademicClassDAO) UpdateClass(ctx context.Context, class model.AcademicClass) (*model.AcademicClass, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	var updatedClass *model.AcademicClass
	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {id: $id, institutionID: $institutionID})
        WHERE c.deletedAt IS NULL
        SET c += $props
        RETURN c
        `
		params := map[string]interface{}{
			"id":            class.ID,
			"institutionID": class.InstitutionID,
			"props": map[string]interface{}{
				campus_neo4j.AttrName:      class.Name,
				"academicYear":             class.AcademicYear,
				"startDate":                formatNullableTime(class.StartDate),
				"endDate":                  formatNullableTime(class.EndDate),
				"lastUpdatedBy":            requestingUserID(ctx),
				campus_neo4j.AttrUpdatedAt: time.Now().Format(time.RFC3339),
			},
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update class query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedClass = mapNodeToAcademicClass(node)
			return nil, nil
		}
		return nil, apperrors.ErrClassNotFound
	})
	if err != nil {
		logger.Error("Failed to update academic class", zap.Error(err), zap.String("classID", class.ID))
		return nil, err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_ACADEMIC_CLASS",
		EntityType:    "AcademicClass",
		EntityID:      class.ID,
		InstitutionID: class.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedClass, nil
}

func (dao *AcademicClassDAO) SetActive(ctx context.Context, institutionID, classID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {id: $id, institutionID: $institutionID})
        WHERE c.deletedAt IS NULL
        SET c.isActive = $active,
            c.lastUpdatedBy = $updatedBy,
            c.updatedAt = $updatedAt
        RETURN c.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            classID,
			"institutionID": institutionID,
			"active":        active,
			"updatedBy":     requestingUserID(ctx),
			"updatedAt":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to set class active flag", zap.Error(err), zap.String("classID", classID))
		return err
	}

	action := "DEACTIVATE_ACADEMIC_CLASS"
	if active {
		action = "ACTIVATE_ACADEMIC_CLASS"
	}
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        action,
		EntityType:    "AcademicClass",
		EntityID:      classID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *AcademicClassDAO) SoftDeleteClass(ctx context.Context, institutionID, classID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {id: $id, institutionID: $institutionID})
        WHERE c.deletedAt IS NULL
        SET c.deletedAt = $deletedAt,
            c.deletedBy = $deletedBy,
            c.isActive = false
        RETURN c.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            classID,
			"institutionID": institutionID,
			"deletedAt":     time.Now().Format(time.RFC3339),
			"deletedBy":     requestingUserID(ctx),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrClassNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to delete academic class", zap.Error(err), zap.String("classID", classID))
		return err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "DELETE_ACADEMIC_CLASS",
		EntityType:    "AcademicClass",
		EntityID:      classID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *AcademicClassDAO) GetClass(ctx context.Context, institutionID, classID string) (*model.AcademicClass, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {id: $id, institutionID: $institutionID})
    WHERE c.deletedAt IS NULL
    RETURN c
    `
	result, err := session.Run(query, map[string]interface{}{
		"id":            classID,
		"institutionID": institutionID,
	})
	if err != nil {
		logger.Error("Failed to execute get class query", zap.Error(err), zap.String("classID", classID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToAcademicClass(node), nil
	}
	return nil, apperrors.ErrClassNotFound
}

func (dao *AcademicClassDAO) ListClassesByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicClass, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {institutionID: $institutionID})
    WHERE c.deletedAt IS NULL
    RETURN c
    ORDER BY c.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"limit":         limit,
		"offset":        offset,
	})
	if err != nil {
		logger.Error("Failed to execute list classes query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	var classes []*model.AcademicClass
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		classes = append(classes, mapNodeToAcademicClass(node))
	}
	return classes, nil
}

// ExistsByNameAndYear reports whether the institution already has a class
// with the given name in the given academic year.
func (dao *AcademicClassDAO) ExistsByNameAndYear(ctx context.Context, institutionID, name, academicYear string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {institutionID: $institutionID, name: $name, academicYear: $academicYear})
    WHERE c.deletedAt IS NULL
    RETURN count(c) as count
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"name":          name,
		"academicYear":  academicYear,
	})
	if err != nil {
		return false, apperrors.ErrDatabaseOperation
	}
	if result.Next() {
		return result.Record().Values[0].(int64) > 0, nil
	}
	return false, nil
}

func formatNullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// Helper function to map Neo4j Node to AcademicClass struct
func mapNodeToAcademicClass(node neo4j.Node) *model.AcademicClass {
	props := node.Props
	class := &model.AcademicClass{
		ID:            stringValue(props, "id"),
		Name:          stringValue(props, "name"),
		InstitutionID: stringValue(props, "institutionID"),
		ProgramID:     stringValue(props, "programID"),
		AcademicYear:  stringValue(props, "academicYear"),
	}
	if t, err := helper_util.ParseNullableTime(props["startDate"]); err == nil {
		class.StartDate = t
	}
	if t, err := helper_util.ParseNullableTime(props["endDate"]); err == nil {
		class.EndDate = t
	}
	mapAuditable(props, &class.Auditable)
	return class
}
