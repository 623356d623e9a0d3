// dao/section_dao.go
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
)

type SectionDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewSectionDAO(driver neo4j.Driver, auditService audit.Service) *SectionDAO {
	dao := &SectionDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for Section", zap.Error(err))
	}
	return dao
}

func (dao *SectionDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_section_id IF NOT EXISTS
        FOR (s:` + campus_neo4j.LabelSection + `) REQUIRE s.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Section ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *SectionDAO) CreateSection(ctx context.Context, section model.Section) (string, error) {
	start := time.Now()
	logger.Info("Creating new section",
		zap.String("sectionName", section.Name),
		zap.String("classID", section.ClassID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if section.ID == "" {
		section.ID = model.NewID(model.PrefixSection)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (s:` + campus_neo4j.LabelSection + ` {id: $id})
        ON CREATE SET
            s.name = $name,
            s.institutionID = $institutionID,
            s.classID = $classID,
            s.classTeacherID = $classTeacherID,
            s.isActive = $isActive,
            s.createdBy = $createdBy,
            s.createdAt = $createdAt,
            s.updatedAt = $updatedAt
        WITH s
        MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {id: $classID, institutionID: $institutionID})
        MERGE (s)-[:` + campus_neo4j.RelPartOf + `]->(c)
        WITH s
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $institutionID})
        MERGE (s)-[:` + campus_neo4j.RelBelongsTo + `]->(i)
        RETURN s.id as id
        `
		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":             section.ID,
			"name":           section.Name,
			"institutionID":  section.InstitutionID,
			"classID":        section.ClassID,
			"classTeacherID": section.ClassTeacherID,
			"isActive":       true,
			"createdBy":      requestingUserID(ctx),
			"createdAt":      now,
			"updatedAt":      now,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create section query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrClassNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create section",
			zap.Error(err),
			zap.String("sectionName", section.Name),
			zap.Duration("duration", duration))
		return "", err
	}

	sectionID := fmt.Sprintf("%v", result)
	logger.Info("Section created successfully",
		zap.String("sectionID", sectionID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_SECTION",
		EntityType:    "Section",
		EntityID:      sectionID,
		InstitutionID: section.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return sectionID, nil
}

func (dao *SectionDAO) UpdateSection(ctx context.Context, section model.Section) (*model.Section, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	var updatedSection *model.Section
	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:` + campus_neo4j.LabelSection + ` {id: $id, institutionID: $institutionID})
        WHERE s.deletedAt IS NULL
        SET s += $props
        RETURN s
        `
		params := map[string]interface{}{
			"id":            section.ID,
			"institutionID": section.InstitutionID,
			"props": map[string]interface{}{
				campus_neo4j.AttrName:      section.Name,
				"classTeacherID":           section.ClassTeacherID,
				"lastUpdatedBy":            requestingUserID(ctx),
				campus_neo4j.AttrUpdatedAt: time.Now().Format(time.RFC3339),
			},
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update section query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedSection = mapNodeToSection(node)
			return nil, nil
		}
		return nil, apperrors.ErrSectionNotFound
	})
	if err != nil {
		logger.Error("Failed to update section", zap.Error(err), zap.String("sectionID", section.ID))
		return nil, err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_SECTION",
		EntityType:    "Section",
		EntityID:      section.ID,
		InstitutionID: section.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedSection, nil
}

func (dao *SectionDAO) SetActive(ctx context.Context, institutionID, sectionID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:` + campus_neo4j.LabelSection + ` {id: $id, institutionID: $institutionID})
        WHERE s.deletedAt IS NULL
        SET s.isActive = $active,
            s.lastUpdatedBy = $updatedBy,
            s.updatedAt = $updatedAt
        RETURN s.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            sectionID,
			"institutionID": institutionID,
			"active":        active,
			"updatedBy":     requestingUserID(ctx),
			"updatedAt":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrSectionNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to set section active flag", zap.Error(err), zap.String("sectionID", sectionID))
		return err
	}

	action := "DEACTIVATE_SECTION"
	if active {
		action = "ACTIVATE_SECTION"
	}
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        action,
		EntityType:    "Section",
		EntityID:      sectionID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *SectionDAO) SoftDeleteSection(ctx context.Context, institutionID, sectionID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (s:` + campus_neo4j.LabelSection + ` {id: $id, institutionID: $institutionID})
        WHERE s.deletedAt IS NULL
        SET s.deletedAt = $deletedAt,
            s.deletedBy = $deletedBy,
            s.isActive = false
        RETURN s.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            sectionID,
			"institutionID": institutionID,
			"deletedAt":     time.Now().Format(time.RFC3339),
			"deletedBy":     requestingUserID(ctx),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrSectionNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to delete section", zap.Error(err), zap.String("sectionID", sectionID))
		return err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "DELETE_SECTION",
		EntityType:    "Section",
		EntityID:      sectionID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *SectionDAO) GetSection(ctx context.Context, institutionID, sectionID string) (*model.Section, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (s:` + campus_neo4j.LabelSection + ` {id: $id, institutionID: $institutionID})
    WHERE s.deletedAt IS NULL
    RETURN s
    `
	result, err := session.Run(query, map[string]interface{}{
		"id":            sectionID,
		"institutionID": institutionID,
	})
	if err != nil {
		logger.Error("Failed to execute get section query", zap.Error(err), zap.String("sectionID", sectionID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToSection(node), nil
	}
	return nil, apperrors.ErrSectionNotFound
}

func (dao *SectionDAO) ListSectionsByClass(ctx context.Context, institutionID, classID string, limit, offset int) ([]*model.Section, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (s:` + campus_neo4j.LabelSection + ` {institutionID: $institutionID, classID: $classID})
    WHERE s.deletedAt IS NULL
    RETURN s
    ORDER BY s.name
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"classID":       classID,
		"limit":         limit,
		"offset":        offset,
	})
	if err != nil {
		logger.Error("Failed to execute list sections query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	var sections []*model.Section
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		sections = append(sections, mapNodeToSection(node))
	}
	return sections, nil
}

// ExistsByName reports whether a class already has a section with the
// given name.
func (dao *SectionDAO) ExistsByName(ctx context.Context, institutionID, classID, name string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (s:` + campus_neo4j.LabelSection + ` {institutionID: $institutionID, classID: $classID, name: $name})
    WHERE s.deletedAt IS NULL
    RETURN count(s) as count
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"classID":       classID,
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

// Helper function to map Neo4j Node to Section struct
func mapNodeToSection(node neo4j.Node) *model.Section {
	props := node.Props
	section := &model.Section{
		ID:             stringValue(props, "id"),
		Name:           stringValue(props, "name"),
		InstitutionID:  stringValue(props, "institutionID"),
		ClassID:        stringValue(props, "classID"),
		ClassTeacherID: stringValue(props, "classTeacherID"),
	}
	mapAuditable(props, &section.Auditable)
	return section
}
