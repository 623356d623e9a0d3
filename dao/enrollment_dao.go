// dao/enrollment_dao.go
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

type EnrollmentDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewEnrollmentDAO(driver neo4j.Driver, auditService audit.Service) *EnrollmentDAO {
	dao := &EnrollmentDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for StudentEnrollment", zap.Error(err))
	}
	return dao
}

func (dao *EnrollmentDAO) EnsureUniqueConstraint(ctx context.Context) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_student_enrollment_id IF NOT EXISTS
        FOR (e:` + campus_neo4j.LabelStudentEnrollment + `) REQUIRE e.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on StudentEnrollment ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *EnrollmentDAO) CreateEnrollment(ctx context.Context, enrollment model.StudentEnrollment) (string, error) {
	start := time.Now()
	logger.Info("Creating new enrollment",
		zap.String("studentID", enrollment.StudentID),
		zap.String("institutionID", enrollment.InstitutionID),
		zap.String("academicYear", enrollment.AcademicYear))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if enrollment.ID == "" {
		enrollment.ID = model.NewID(model.PrefixStudentEnrollment)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (e:` + campus_neo4j.LabelStudentEnrollment + ` {id: $id})
        ON CREATE SET
            e.studentID = $studentID,
            e.institutionID = $institutionID,
            e.classID = $classID,
            e.sectionID = $sectionID,
            e.academicYear = $academicYear,
            e.isActive = $isActive,
            e.createdBy = $createdBy,
            e.createdAt = $createdAt,
            e.updatedAt = $updatedAt
        WITH e
        MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {id: $studentID})
        MERGE (e)-[:` + campus_neo4j.RelForStudent + `]->(u)
        WITH e
        MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {id: $classID})
        MERGE (e)-[:` + campus_neo4j.RelInClass + `]->(c)
        WITH e
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $institutionID})
        MERGE (e)-[:` + campus_neo4j.RelBelongsTo + `]->(i)
        `
		if enrollment.SectionID != "" {
			query += `
            WITH e
            MATCH (s:` + campus_neo4j.LabelSection + ` {id: $sectionID})
            MERGE (e)-[:` + campus_neo4j.RelInSection + `]->(s)
            `
		}
		query += `
        RETURN e.id as id
        `

		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":            enrollment.ID,
			"studentID":     enrollment.StudentID,
			"institutionID": enrollment.InstitutionID,
			"classID":       enrollment.ClassID,
			"sectionID":     enrollment.SectionID,
			"academicYear":  enrollment.AcademicYear,
			"isActive":      true,
			"createdBy":     requestingUserID(ctx),
			"createdAt":     now,
			"updatedAt":     now,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create enrollment query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrUserNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create enrollment",
			zap.Error(err),
			zap.String("studentID", enrollment.StudentID),
			zap.Duration("duration", duration))
		return "", err
	}

	enrollmentID := fmt.Sprintf("%v", result)
	logger.Info("Enrollment created successfully",
		zap.String("enrollmentID", enrollmentID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_ENROLLMENT",
		EntityType:    "StudentEnrollment",
		EntityID:      enrollmentID,
		InstitutionID: enrollment.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return enrollmentID, nil
}

// UpdateEnrollment moves an enrollment between class and section. Student,
// institution and academic year are immutable once enrolled.
func (dao *EnrollmentDAO) UpdateEnrollment(ctx context.Context, enrollment model.StudentEnrollment) (*model.StudentEnrollment, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	var updatedEnrollment *model.StudentEnrollment
	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (e:` + campus_neo4j.LabelStudentEnrollment + ` {id: $id, institutionID: $institutionID})
        WHERE e.deletedAt IS NULL
        SET e += $props
        WITH e
        OPTIONAL MATCH (e)-[oldClassRel:` + campus_neo4j.RelInClass + `]->(:` + campus_neo4j.LabelAcademicClass + `)
        DELETE oldClassRel
        WITH e
        MATCH (c:` + campus_neo4j.LabelAcademicClass + ` {id: $classID})
        MERGE (e)-[:` + campus_neo4j.RelInClass + `]->(c)
        WITH e
        OPTIONAL MATCH (e)-[oldSectionRel:` + campus_neo4j.RelInSection + `]->(:` + campus_neo4j.LabelSection + `)
        DELETE oldSectionRel
        WITH e
        OPTIONAL MATCH (s:` + campus_neo4j.LabelSection + ` {id: $sectionID})
        FOREACH (_ IN CASE WHEN s IS NOT NULL THEN [1] ELSE [] END |
            MERGE (e)-[:` + campus_neo4j.RelInSection + `]->(s)
        )
        RETURN DISTINCT e
        `
		params := map[string]interface{}{
			"id":            enrollment.ID,
			"institutionID": enrollment.InstitutionID,
			"classID":       enrollment.ClassID,
			"sectionID":     enrollment.SectionID,
			"props": map[string]interface{}{
				"classID":                  enrollment.ClassID,
				"sectionID":                enrollment.SectionID,
				"lastUpdatedBy":            requestingUserID(ctx),
				campus_neo4j.AttrUpdatedAt: time.Now().Format(time.RFC3339),
			},
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update enrollment query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedEnrollment = mapNodeToEnrollment(node)
			return nil, nil
		}
		return nil, apperrors.ErrEnrollmentNotFound
	})
	if err != nil {
		logger.Error("Failed to update enrollment", zap.Error(err), zap.String("enrollmentID", enrollment.ID))
		return nil, err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_ENROLLMENT",
		EntityType:    "StudentEnrollment",
		EntityID:      enrollment.ID,
		InstitutionID: enrollment.InstitutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedEnrollment, nil
}

func (dao *EnrollmentDAO) SetActive(ctx context.Context, institutionID, enrollmentID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (e:` + campus_neo4j.LabelStudentEnrollment + ` {id: $id, institutionID: $institutionID})
        WHERE e.deletedAt IS NULL
        SET e.isActive = $active,
            e.lastUpdatedBy = $updatedBy,
            e.updatedAt = $updatedAt
        RETURN e.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            enrollmentID,
			"institutionID": institutionID,
			"active":        active,
			"updatedBy":     requestingUserID(ctx),
			"updatedAt":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to set enrollment active flag", zap.Error(err), zap.String("enrollmentID", enrollmentID))
		return err
	}

	action := "DEACTIVATE_ENROLLMENT"
	if active {
		action = "ACTIVATE_ENROLLMENT"
	}
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        action,
		EntityType:    "StudentEnrollment",
		EntityID:      enrollmentID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *EnrollmentDAO) SoftDeleteEnrollment(ctx context.Context, institutionID, enrollmentID string) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (e:` + campus_neo4j.LabelStudentEnrollment + ` {id: $id, institutionID: $institutionID})
        WHERE e.deletedAt IS NULL
        SET e.deletedAt = $deletedAt,
            e.deletedBy = $deletedBy,
            e.isActive = false
        RETURN e.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            enrollmentID,
			"institutionID": institutionID,
			"deletedAt":     time.Now().Format(time.RFC3339),
			"deletedBy":     requestingUserID(ctx),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to delete enrollment", zap.Error(err), zap.String("enrollmentID", enrollmentID))
		return err
	}

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "DELETE_ENROLLMENT",
		EntityType:    "StudentEnrollment",
		EntityID:      enrollmentID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *EnrollmentDAO) GetEnrollment(ctx context.Context, institutionID, enrollmentID string) (*model.StudentEnrollment, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (e:` + campus_neo4j.LabelStudentEnrollment + ` {id: $id, institutionID: $institutionID})
    WHERE e.deletedAt IS NULL
    RETURN e
    `
	result, err := session.Run(query, map[string]interface{}{
		"id":            enrollmentID,
		"institutionID": institutionID,
	})
	if err != nil {
		logger.Error("Failed to execute get enrollment query", zap.Error(err), zap.String("enrollmentID", enrollmentID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		return mapNodeToEnrollment(node), nil
	}
	return nil, apperrors.ErrEnrollmentNotFound
}

func (dao *EnrollmentDAO) ListEnrollmentsByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.StudentEnrollment, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (e:` + campus_neo4j.LabelStudentEnrollment + ` {institutionID: $institutionID})
    WHERE e.deletedAt IS NULL
    RETURN e
    ORDER BY e.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"limit":         limit,
		"offset":        offset,
	})
	if err != nil {
		logger.Error("Failed to execute list enrollments query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	var enrollments []*model.StudentEnrollment
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		enrollments = append(enrollments, mapNodeToEnrollment(node))
	}
	return enrollments, nil
}

// ExistsForStudentYear reports whether the student already has a live
// enrollment at the institution for the academic year.
func (dao *EnrollmentDAO) ExistsForStudentYear(ctx context.Context, institutionID, studentID, academicYear string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (e:` + campus_neo4j.LabelStudentEnrollment + ` {institutionID: $institutionID, studentID: $studentID, academicYear: $academicYear})
    WHERE e.deletedAt IS NULL
    RETURN count(e) as count
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"studentID":     studentID,
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

// Helper function to map Neo4j Node to StudentEnrollment struct
func mapNodeToEnrollment(node neo4j.Node) *model.StudentEnrollment {
	props := node.Props
	enrollment := &model.StudentEnrollment{
		ID:            stringValue(props, "id"),
		StudentID:     stringValue(props, "studentID"),
		InstitutionID: stringValue(props, "institutionID"),
		ClassID:       stringValue(props, "classID"),
		SectionID:     stringValue(props, "sectionID"),
		AcademicYear:  stringValue(props, "academicYear"),
	}
	mapAuditable(props, &enrollment.Auditable)
	return enrollment
}
