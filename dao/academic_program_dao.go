// dao/academic_program_dao.go
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

type AcademicProgramDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewAcademicProgramDAO(driver neo4j.Driver, auditService audit.Service) *AcademicProgramDAO {
	dao := &AcademicProgramDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for AcademicProgram", zap.Error(err))
	}
	return dao
}

func (dao *AcademicProgramDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_academic_program_id IF NOT EXISTS
        FOR (p:` + campus_neo4j.LabelAcademicProgram + `) REQUIRE p.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on AcademicProgram ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *AcademicProgramDAO) CreateProgram(ctx context.Context, program model.AcademicProgram) (string, error) {
	start := time.Now()
	logger.Info("Creating new academic program",
		zap.String("programName", program.Name),
		zap.String("institutionID", program.InstitutionID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if program.ID == "" {
		program.ID = model.NewID(model.PrefixAcademicProgram)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (p:` + campus_neo4j.LabelAcademicProgram + ` {id: $id})
        ON CREATE SET
            p.name = $name,
            p.institutionID = $institutionID,
            p.durationInYears = $durationInYears,
            p.isActive = $isActive,
            p.createdBy = $createdBy,
            p.createdAt = $createdAt,
            p.updatedAt = $updatedAt
        WITH p
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $institutionID})
        MERGE (p)-[:` + campus_neo4j.RelBelongsTo + `]->(i)
        RETURN p.id as id
        `
		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":              program.ID,
			"name":            program.Name,
			"institutionID":   program.InstitutionID,
			"durationInYears": program.DurationInYears,
			"isActive":        true,
			"createdBy":       requestingUserID(ctx),
			"createdAt":       now,
			"updatedAt":       now,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create program query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInstitutionNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create academic program",
			zap.Error(err),
			zap.String("programName", program.Name),
			zap.Duration("duration", duration))
		return "", err
	}

	programID := fmt.Sprintf("%v", result)
	logger.Info("Academic program created successfully",
		zap.String("programID", programID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_ACADEMIC_PROGRAM",
		EntityType:    "AcademicProgram",
		EntityID:      programID,
		InstitutionID: program.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return programID, nil
}

func (dao *AcademicProgramDAO) UpdateProgram(ctx context.Context, program model.AcademicProgram) (*model.AcademicProgram, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	var updatedProgram *model.AcademicProgram
	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + campus_neo4j.LabelAcademicProgram + ` {id: $id, institutionID: $institutionID})
        WHERE p.deletedAt IS NULL
        SET p += $props
        RETURN p
        `
		params := map[string]interface{}{
			"id":            program.ID,
			"institutionID": program.InstitutionID,
			"props": map[string]interface{}{
				campus_neo4j.AttrName:      program.Name,
				"durationInYears":          program.DurationInYears,
				"lastUpdatedBy":            requestingUserID(ctx),
				campus_neo4j.AttrUpdatedAt: time.Now().Format(time.RFC3339),
			},
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update program query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedProgram = mapNodeToAcademicProgram(node)
			return nil, nil
		}
		return nil, apperrors.ErrProgramNotFound
	})
	if err != nil {
		logger.Error("Failed to update academic program", zap.Error(err), zap.String("programID", program.ID))
		return nil, err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_ACADEMIC_PROGRAM",
		EntityType:    "AcademicProgram",
		EntityID:      program.ID,
		InstitutionID: program.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedProgram, nil
}

func (dao *AcademicProgramDAO) SetActive(ctx context.Context, institutionID, programID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + campus_neo4j.LabelAcademicProgram + ` {id: $id, institutionID: $institutionID})
        WHERE p.deletedAt IS NULL
        SET p.isActive = $active,
            p.lastUpdatedBy = $updatedBy,
            p.updatedAt = $updatedAt
        RETURN p.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            programID,
			"institutionID": institutionID,
			"active":        active,
			"updatedBy":     requestingUserID(ctx),
			"updatedAt":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to set program active flag", zap.Error(err), zap.String("programID", programID))
		return err
	}

	action := "DEACTIVATE_ACADEMIC_PROGRAM"
	if active {
		action = "ACTIVATE_ACADEMIC_PROGRAM"
	}
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        action,
		EntityType:    "AcademicProgram",
		EntityID:      programID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *AcademicProgramDAO) SoftDeleteProgram(ctx context.Context, institutionID, programID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:` + campus_neo4j.LabelAcademicProgram + ` {id: $id, institutionID: $institutionID})
        WHERE p.deletedAt IS NULL
        SET p.deletedAt = $deletedAt,
            p.deletedBy = $deletedBy,
            p.isActive = false
        RETURN p.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            programID,
			"institutionID": institutionID,
			"deletedAt":     time.Now().Format(time.RFC3339),
			"deletedBy":     requestingUserID(ctx),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to delete academic program", zap.Error(err), zap.String("programID", programID))
		return err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "DELETE_ACADEMIC_PROGRAM",
		EntityType:    "AcademicProgram",
		EntityID:      programID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *AcademicProgramDAO) GetProgram(ctx context.Context, institutionID, programID string) (*model.AcademicProgram, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + campus_neo4j.LabelAcademicProgram + ` {id: $id, institutionID: $institutionID})
    WHERE p.deletedAt IS NULL
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{
		"id":            programID,
		"institutionID": institutionID,
	})
	if err != nil {
		logger.Error("Failed to execute get program query", zap.Error(err), zap.String("programID", programID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToAcademicProgram(node), nil
	}
	return nil, apperrors.ErrProgramNotFound
}

func (dao *AcademicProgramDAO) ListProgramsByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.AcademicProgram, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + campus_neo4j.LabelAcademicProgram + ` {institutionID: $institutionID})
    WHERE p.deletedAt IS NULL
    RETURN p
    ORDER BY p.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"limit":         limit,
		"offset":        offset,
	})
	if err != nil {
		logger.Error("Failed to execute list programs query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	var programs []*model.AcademicProgram
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		programs = append(programs, mapNodeToAcademicProgram(node))
	}
	return programs, nil
}

// ExistsByName reports whether the institution already offers a program
// with the given name.
func (dao *AcademicProgramDAO) ExistsByName(ctx context.Context, institutionID, name string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:` + campus_neo4j.LabelAcademicProgram + ` {institutionID: $institutionID, name: $name})
    WHERE p.deletedAt IS NULL
    RETURN count(p) as count
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

// Helper function to map Neo4j Node to AcademicProgram struct
func mapNodeToAcademicProgram(node neo4j.Node) *model.AcademicProgram {
	props := node.Props
	program := &model.AcademicProgram{
		ID:            stringValue(props, "id"),
		Name:          stringValue(props, "name"),
		InstitutionID: stringValue(props, "institutionID"),
	}
	if v, ok := props["durationInYears"].(int64); ok {
		program.DurationInYears = int(v)
	}
	mapAuditable(props, &program.Auditable)
	return program
}
