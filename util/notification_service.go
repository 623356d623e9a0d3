// util/notification_service.go

package util

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/campusmesh/campus/api/logging"
	"github.com/campusmesh/campus/api/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) SendEmail(ctx context.Context, recipient, subject, body string) error {
	// Mock email sending
	logger.Info("Sending email",
		zap.String("recipient", recipient),
		zap.String("subject", subject))

	return nil
}

func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	// Logic to notify all system administrators
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}

func (n *NotificationService) NotifyInstitutionChange(ctx context.Context, changeType string, institution model.Institution) error {
	logger.Info("Notifying institution change",
		zap.String("changeType", changeType),
		zap.String("institutionID", institution.ID),
		zap.String("institutionName", institution.Name))
	return nil
}

func (n *NotificationService) NotifyUserChange(ctx context.Context, changeType string, user model.User) error {
	logger.Info("Notifying user change",
		zap.String("changeType", changeType),
		zap.String("userID", user.ID),
		zap.String("userEmail", user.Email))
	return nil
}

func (n *NotificationService) NotifyInstitutionUserChange(ctx context.Context, changeType string, user model.InstitutionUser) error {
	logger.Info("Notifying institution user change",
		zap.String("changeType", changeType),
		zap.String("userID", user.ID),
		zap.String("institutionID", user.InstitutionID))
	return nil
}

func (n *NotificationService) NotifyRoleChange(ctx context.Context, changeType string, role model.Role) error {
	logger.Info("Notifying role change",
		zap.String("changeType", changeType),
		zap.String("roleID", role.ID),
		zap.String("roleName", role.Name))
	return nil
}

func (n *NotificationService) NotifyInstitutionRoleChange(ctx context.Context, changeType string, role model.InstitutionRole) error {
	logger.Info("Notifying institution role change",
		zap.String("changeType", changeType),
		zap.String("roleID", role.ID),
		zap.String("institutionID", role.InstitutionID),
		zap.String("roleName", role.Name))
	return nil
}

func (n *NotificationService) NotifyPermissionChange(ctx context.Context, changeType string, permission model.Permission) error {
	logger.Info("Notifying permission change",
		zap.String("changeType", changeType),
		zap.String("permissionID", permission.ID),
		zap.String("permissionSlug", permission.Slug))
	return nil
}

func (n *NotificationService) NotifyEnrollmentChange(ctx context.Context, changeType string, enrollment model.StudentEnrollment) error {
	logger.Info("Notifying enrollment change",
		zap.String("changeType", changeType),
		zap.String("enrollmentID", enrollment.ID),
		zap.String("studentID", enrollment.StudentID),
		zap.String("institutionID", enrollment.InstitutionID))
	return nil
}
