// dao/user_dao.go
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

type UserDAO struct {
	Driver       neo4j.Driver
	AuditService audit.Service
}

func NewUserDAO(driver neo4j.Driver, auditService audit.Service) *UserDAO {
	dao := &UserDAO{Driver: driver, AuditService: auditService}
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint for User", zap.Error(err))
	}
	return dao
}

func (dao *UserDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on User ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_user_id IF NOT EXISTS
        FOR (u:` + campus_neo4j.LabelUser + `) REQUIRE u.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		return nil, err
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on User ID", zap.Error(err))
		return err
	}
	return nil
}

func (dao *UserDAO) CreateUser(ctx context.Context, user model.User) (string, error) {
	start := time.Now()
	logger.Info("Creating new user", zap.String("email", user.Email))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if user.ID == "" {
		user.ID = model.NewID(model.PrefixUser)
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (u:` + campus_neo4j.LabelUser + ` {id: $id})
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
        `
		if len(user.RoleIDs) > 0 {
			query += `
            WITH u
            UNWIND $roles AS roleID
            MATCH (r:` + campus_neo4j.LabelRole + ` {id: roleID})
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
			logger.Error("Failed to execute create user query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			return result.Record().Values[0], nil
		}
		return nil, apperrors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create user",
			zap.Error(err),
			zap.String("email", user.Email),
			zap.Duration("duration", duration))
		return "", err
	}

	userID := fmt.Sprintf("%v", result)
	logger.Info("User created successfully",
		zap.String("userID", userID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "CREATE_USER",
		EntityType:    "User",
		EntityID:      userID,
		ChangeDetails: createUserChangeDetails(nil, &user),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return userID, nil
}

func (dao *UserDAO) UpdateUser(ctx context.Context, user model.User) (*model.User, error) {
	start := time.Now()
	logger.Info("Updating user", zap.String("userID", user.ID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	oldUser, err := dao.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var updatedUser *model.User
	_, err = session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + campus_neo4j.LabelUser + ` {id: $id})
        WHERE u.deletedAt IS NULL
        SET u += $props
        WITH u
        OPTIONAL MATCH (u)-[oldRoleRel:` + campus_neo4j.RelHasRole + `]->(:` + campus_neo4j.LabelRole + `)
        DELETE oldRoleRel
        WITH u
        UNWIND $roles AS roleID
        MATCH (r:` + campus_neo4j.LabelRole + ` {id: roleID})
        MERGE (u)-[:` + campus_neo4j.RelHasRole + `]->(r)
        RETURN DISTINCT u
        `
		params := map[string]interface{}{
			"id": user.ID,
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
			logger.Error("Failed to execute update user query", zap.Error(err))
			return nil, apperrors.ErrDatabaseOperation
		}
		if result.Next() {
			node := result.Record().Values[0].(neo4j.Node)
			updatedUser = mapNodeToUser(node)
			updatedUser.RoleIDs = user.RoleIDs
			return nil, nil
		}
		return nil, apperrors.ErrUserNotFound
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update user",
			zap.Error(err),
			zap.String("userID", user.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	logger.Info("User updated successfully",
		zap.String("userID", user.ID),
		zap.Duration("duration", duration))

	// Audit trail
	entry := audit.Entry{
		Timestamp:     time.Now(),
		UserID:        requestingUserID(ctx),
		Action:        "UPDATE_USER",
		EntityType:    "User",
		EntityID:      user.ID,
		ChangeDetails: createUserChangeDetails(oldUser, updatedUser),
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}

	return updatedUser, nil
}

// SetActive flips the activation flag.
func (dao *UserDAO) SetActive(ctx context.Context, userID string, active bool) error {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + campus_neo4j.LabelUser + ` {id: $id})
        WHERE u.deletedAt IS NULL
        SET u.isActive = $active,
            u.lastUpdatedBy = $updatedBy,
            u.updatedAt = $updatedAt
        RETURN u.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":        userID,
			"active":    active,
			"updatedBy": requestingUserID(ctx),
			"updatedAt": time.Now().Format(time.RFC3339),
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
		logger.Error("Failed to set user active flag",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Bool("active", active))
		return err
	}

	action := "DEACTIVATE_USER"
	if active {
		action = "ACTIVATE_USER"
	}
	entry := audit.Entry{
		Timestamp:  time.Now(),
		UserID:     requestingUserID(ctx),
		Action:     action,
		EntityType: "User",
		EntityID:   userID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

// SoftDeleteUser stamps the user deleted.
func (dao *UserDAO) SoftDeleteUser(ctx context.Context, userID string) error {
	start := time.Now()
	logger.Info("Deleting user", zap.String("userID", userID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:` + campus_neo4j.LabelUser + ` {id: $id})
        WHERE u.deletedAt IS NULL
        SET u.deletedAt = $deletedAt,
            u.deletedBy = $deletedBy,
            u.isActive = false
        RETURN u.id
        `
		result, err := transaction.Run(query, map[string]interface{}{
			"id":        userID,
			"deletedAt": time.Now().Format(time.RFC3339),
			"deletedBy": requestingUserID(ctx),
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
		logger.Error("Failed to delete user",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("User deleted successfully",
		zap.String("userID", userID),
		zap.Duration("duration", duration))

	entry := audit.Entry{
		Timestamp:  time.Now(),
		UserID:     requestingUserID(ctx),
		Action:     "DELETE_USER",
		EntityType: "User",
		EntityID:   userID,
	}
	if err := dao.AuditService.LogChange(ctx, entry); err != nil {
		logger.Error("Failed to create audit log", zap.Error(err))
	}
	return nil
}

func (dao *UserDAO) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelUser + ` {id: $id})
    WHERE u.deletedAt IS NULL
    OPTIONAL MATCH (u)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelRole + `)
    RETURN u, collect(r.id) as roleIDs
    `
	result, err := session.Run(query, map[string]interface{}{"id": userID})
	if err != nil {
		logger.Error("Failed to execute get user query", zap.Error(err), zap.String("userID", userID))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		values := result.Record().Values
		user := mapNodeToUser(values[0].(neo4j.Node))
		user.RoleIDs = collectStrings(values[1])
		return user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

// GetUserByEmail resolves a user by email for the login path. The password
// hash is included.
func (dao *UserDAO) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelUser + ` {email: $email})
    WHERE u.deletedAt IS NULL
    OPTIONAL MATCH (u)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelRole + `)
    RETURN u, collect(r.id) as roleIDs
    `
	result, err := session.Run(query, map[string]interface{}{"email": email})
	if err != nil {
		logger.Error("Failed to execute get user by email query", zap.Error(err))
		return nil, apperrors.ErrDatabaseOperation
	}

	if result.Next() {
		values := result.Record().Values
		user := mapNodeToUser(values[0].(neo4j.Node))
		user.RoleIDs = collectStrings(values[1])
		return user, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (dao *UserDAO) ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelUser + `)
    WHERE u.deletedAt IS NULL
    OPTIONAL MATCH (u)-[:` + campus_neo4j.RelHasRole + `]->(r:` + campus_neo4j.LabelRole + `)
    RETURN u, collect(r.id) as roleIDs
    ORDER BY u.createdAt DESC
    SKIP $offset
    LIMIT $limit
    `
	result, err := session.Run(query, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		logger.Error("Failed to execute list users query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, apperrors.ErrDatabaseOperation
	}

	var users []*model.User
	for result.Next() {
		values := result.Record().Values
		user := mapNodeToUser(values[0].(neo4j.Node))
		user.RoleIDs = collectStrings(values[1])
		users = append(users, user)
	}

	logger.Info("Users listed successfully",
		zap.Int("count", len(users)),
		zap.Duration("duration", time.Since(start)))
	return users, nil
}

// ExistsByEmail reports whether a live user already uses the email.
func (dao *UserDAO) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelUser + ` {email: $email})
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

// ExistsByPhone reports whether a live user already uses the phone number.
func (dao *UserDAO) ExistsByPhone(ctx context.Context, phoneNumber string) (bool, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (u:` + campus_neo4j.LabelUser + ` {phoneNumber: $phoneNumber})
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

// Helper function to map Neo4j Node to User struct
func mapNodeToUser(node neo4j.Node) *model.User {
	props := node.Props
	user := &model.User{
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

func collectStrings(collected interface{}) []string {
	values, ok := collected.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, raw := range values {
		if s, ok := raw.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Helper function to create change details for audit log
func createUserChangeDetails(oldUser, newUser *model.User) json.RawMessage {
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
