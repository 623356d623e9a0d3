// dao/institution_user_dao.go
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

type InstitutionUserDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewInstitutionUserDAO(driver neo4j.Driver, auditService audit.Service) *InstitutionUserDAO {
	dao := &InstitutionUserDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for InstitutionUser", zap.Error(err))
	}
	return dao
}

func (dao *InstitutionUserDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on InstitutionUser ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_institution_user_id IF NOT EXISTS
        FOR (u:` + campus_neo4j.LabelInstitutionUser + `) REQUIRE u.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on InstitutionUser ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *InstitutionUserDAO) CreateUser(ctx context.Context, user model.InstitutionUser) (string, error) {
	start := time.Now()
	logger.Info("Creating new institution user",
		zap.String("email", user.Email),
		zap.String("institutionID", user.InstitutionID))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if user.ID == "" {
		user.ID = model.NewID(model.PrefixInstitutionUser)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (u:` + campus_neo4j.LabelInstitutionUser + ` {id: $id})
        ON CREATE SET
            u.firstName = $firstName,
            u.lastName = $lastName,
            u.email = $email,
            u.phoneNumber = $phoneNumber,
            u.password = $password,
            u.institutionID = $institutionID,
            u.isActive = $isActive,
            u.createdBy = $createdBy,
            u.createdAt = $createdAt,
            u.updatedAt = $updatedAt
        WITH u
        MATCH (i:` + campus_neo4j.LabelInstitution + ` {id: $institutionID})
        MERGE (u)-[:` + campus_neo4j.RelBelongsTo + `]->(i)
        `
		if len(user.RoleIDs) > 0 {
			query += `
            WITH u
            UNWIND $roles AS roleID
            MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {id: roleID})
            MERGE (u)-[:` + campus_neo4j.RelHasRole + `]->(r)
            `
		}
		query += `
        RETURN u.id as id
        `

		now := time.Now().Format(time.RFC3339)
		params := map[string]interface{}{
			"id":            user.ID,
			"firstName":     user.FirstName,
			"lastName":      user.LastName,
			"email":         user.Email,
			"phoneNumber":   user.PhoneNumber,
			"password":      user.Password,
			"institutionID": user.InstitutionID,
			"isActive":      true,
			"createdBy":     requestingUserID(ctx),
			"createdAt":     now,
			"updatedAt":     now,
		}
		if len(user.RoleIDs) > 0 {
			params["roles"] = user.RoleIDs
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute create institution user query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInstitutionNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create institution user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.Duration("duration", duration))
		return "", err
	}

	userID := fmt.Sprintf("%v", result)
	logger.Info("Institution user created successfully",
		zap.String("userID", userID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_INSTITUTION_USER",
		EntityType:    "InstitutionUser",
		EntityID:      userID,
		InstitutionID: user.InstitutionID,
		ChangeDetails: createInstitutionUserChangeDetails(nil, &user),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return userID, nil
}

func (dao *InstitutionUserDAO) UpdateUser(ctx context.Context, user model.InstitutionUser) (*model.InstitutionUser, error) {
	start := time.Now()
	logger.Info("Updating institution user", zap.String("userID", user.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldUser, err := dao.GetInstitutionUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var updatedUser *model.InstitutionUser
	_, err = session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {id: $id, institutionID: $institutionID})
        WHERE u.deletedAt IS NULL
        SET u += $props
        WITH u
        OPTIONAL MATCH (u)-[oldRoleRel:` + campus_neo4j.RelHasRole + `]->(:` + campus_neo4j.LabelInstitutionRole + `)
        DELETE oldRoleRel
        WITH u
        UNWIND $roles AS roleID
        MATCH (r:` + campus_neo4j.LabelInstitutionRole + ` {id: roleID})
        MERGE (u)-[:` + campus_neo4j.RelHasRole + `]->(r)
        RETURN DISTINCT u
        `
		params := map[string]interface{}{
			"id":            user.ID,
			"institutionID": user.InstitutionID,
			"props": map[string]interface{}{
				"firstName":                user.FirstName,
				"lastName":                 user.LastName,
				"phoneNumber":              user.PhoneNumber,
				"lastUpdatedBy":            requestingUserID(ctx),
				campus_neo4j.AttrUpdatedAt: time.Now().Format(time.RFC3339),
			},
			"roles": user.RoleIDs,
		}

		result, err := transaction.Run(query, params)
		if err != nil {
			logger.Error("Failed to execute update institution user query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedUser = mapNodeToInstitutionUser(node)
			updatedUser.RoleIDs = user.RoleIDs
			return nil, nil
		}
		return nil, apperrors.ErrUserNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update institution user",
			zap.Error(err),
			zap.String("userID", user.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("Institution user updated successfully",
		zap.String("userID", user.ID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_INSTITUTION_USER",
		EntityType:    "InstitutionUser",
		EntityID:      user.ID,
		InstitutionID: user.InstitutionID,
		ChangeDetails: createInstitutionUserChangeDetails(oldUser, updatedUser),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedUser, nil
}

// SetActive flips the activation flag.
func (dao *InstitutionUserDAO) SetActive(ctx context.Context, institutionID, userID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {id: $id, institutionID: $institutionID})
        WHERE u.deletedAt IS NULL
        SET u.isActive = $active,
            u.lastUpdatedBy = $updatedBy,
            u.updatedAt = $updatedAt
        RETURN u.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            userID,
			"institutionID": institutionID,
			"active":        active,
			"updatedBy":     requestingUserID(ctx),
			"updatedAt":     time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to set institution user active flag",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Bool("active", active))
		return err
	}

	action := "DEACTIVATE_INSTITUTION_USER"
	if active {
		action = "ACTIVATE_INSTITUTION_USER"
	}
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        action,
		EntityType:    "InstitutionUser",
		EntityID:      userID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

// SoftDeleteUser stamps the institution user deleted.
func (dao *InstitutionUserDAO) SoftDeleteUser(ctx context.Context, institutionID, userID string) error {
	start := time.Now()
	logger.Info("Deleting institution user", zap.String("userID", userID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {id: $id, institutionID: $institutionID})
        WHERE u.deletedAt IS NULL
        SET u.deletedAt = $deletedAt,
            u.deletedBy = $deletedBy,
            u.isActive = false
        RETURN u.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":            userID,
			"institutionID": institutionID,
			"deletedAt":     time.Now().Format(time.RFC3339),
			"deletedBy":     requestingUserID(ctx),
		})
		if err != nil {
			return nil, apperrors.ErrDatabaseOperation
		}
		if !result.Next() {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete institution user",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Institution user deleted successfully",
		zap.String("userID", userID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "DELETE_INSTITUTION_USER",
		EntityType:    "InstitutionUser",
		EntityID:      userID,
		InstitutionID: institutionID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *InstitutionUserDAO) GetInstitutionUserByID(ctx context.Context, userID string) (*model.InstitutionUser, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {id: $id})
    WHERE u.deletedAt IS NULL
    OPTIONAL MATCH (u)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelInstitutionRole + `)
    RETURN u, collect(r.id) as roleIDs
    `
	result, err := session.Run(query, map[string]interface{}{"id": userID})
	if err != nil {
		logger.Error("Failed to execute get institution user query", zap.Error(err), zap.String("userID", userID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		values := result.Record().Values
		user := mapNodeToInstitutionUser(values[0].(neo4j.Node))
		user.RoleIDs = collectStrings(values[1])
		return user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

// GetUserByEmail resolves an institution user by email for the login path.
func (dao *InstitutionUserDAO) GetUserByEmail(ctx context.Context, email string) (*model.InstitutionUser, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {email: $email})
    WHERE u.deletedAt IS NULL
    OPTIONAL MATCH (u)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelInstitutionRole + `)
    RETURN u, collect(r.id) as roleIDs
    `
	result, err := session.Run(query, map[string]interface{}{"email": email})
	if err != nil {
		logger.Error("Failed to execute get institution user by email query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		values := result.Record().Values
		user := mapNodeToInstitutionUser(values[0].(neo4j.Node))
		user.RoleIDs = collectStrings(values[1])
		return user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (dao *InstitutionUserDAO) ListUsersByInstitution(ctx context.Context, institutionID string, limit, offset int) ([]*model.InstitutionUser, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {institutionID: $institutionID})
    WHERE u.deletedAt IS NULL
    OPTIONAL MATCH (u)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelInstitutionRole + `)
    RETURN u, collect(r.id) as roleIDs
    ORDER BY u.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"institutionID": institutionID,
		"limit":         limit,
		"offset":        offset,
	})
	if err != nil {
		logger.Error("Failed to execute list institution users query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, apperrors.ErrDatabaseOperation
	}

	var users []*model.InstitutionUser
	for result.Next() {
		values := result.Record().Values
		user := mapNodeToInstitutionUser(values[0].(neo4j.Node))
		user.RoleIDs = collectStrings(values[1])
		users = append(users, user)
	}

	logger.Info("Institution users listed successfully",
		zap.String("institutionID", institutionID),
		zap.Int("count", len(users)),
		zap.Duration("duration", time.Since(start)))
	return users, nil
}

// ExistsByEmail reports whether a live institution user already uses the email.
func (dao *InstitutionUserDAO) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {email: $email})
    WHERE u.deletedAt IS NULL
    RETURN count(u) as count
    `
	result, err := session.Run(query, map[string]interface{}{"email": email})
	if err != nil {
		return false, apperrors.ErrDatabaseOperation
	}
	if result.Next() {
		return result.Record().Values[0].(int64) > 0, nil
	}
	return false, nil
}

// ExistsByPhone reports whether a live institution user already uses the
// phone number.
func (dao *InstitutionUserDAO) ExistsByPhone(ctx context.Context, phoneNumber string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelInstitutionUser + ` {phoneNumber: $phoneNumber})
    WHERE u.deletedAt IS NULL
    RETURN count(u) as count
    `
	result, err := session.Run(query, map[string]interface{}{"phoneNumber": phoneNumber})
	if err != nil {
		return false, apperrors.ErrDatabaseOperation
	}
	if result.Next() {
		return result.Record().Values[0].(int64) > 0, nil
	}
	return false, nil
}

// Helper function to map Neo4j Node to InstitutionUser struct
func mapNodeToInstitutionUser(node neo4j.Node) *model.InstitutionUser {
	props := node.Props
	user := &model.InstitutionUser{
		ID:            stringValue(props, "id"),
		FirstName:     stringValue(props, "firstName"),
		LastName:      stringValue(props, "lastName"),
		Email:         stringValue(props, "email"),
		PhoneNumber:   stringValue(props, "phoneNumber"),
		Password:      stringValue(props, "password"),
		InstitutionID: stringValue(props, "institutionID"),
	}
	mapAuditable(props, &user.Auditable)
	return user
}

// Helper function to create change details for audit log
func createInstitutionUserChangeDetails(oldUser, newUser *model.InstitutionUser) json.RawMessage {
	changes := make(map[string]interface{})
	if oldUser == nil {
		changes["action"] = "created"
	} else if newUser == nil {
		changes["action"] = "deleted"
	} else {
		changes["action"] = "updated"
		if oldUser.FirstName != newUser.FirstName {
			changes["firstName"] = map[string]string{"old": oldUser.FirstName, "new": newUser.FirstName}
		}
		if oldUser.LastName != newUser.LastName {
			changes["lastName"] = map[string]string{"old": oldUser.LastName, "new": newUser.LastName}
		}
		if oldUser.PhoneNumber != newUser.PhoneNumber {
			changes["phoneNumber"] = map[string]string{"old": oldUser.PhoneNumber, "new": newUser.PhoneNumber}
		}
	}
	changeDetails, _ := json.Marshal(changes)
	return changeDetails
}
