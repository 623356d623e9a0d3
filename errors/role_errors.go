package errors

import "errors"

var (
	ErrRoleNotFound    = errors.New("role not found")
	ErrRoleConflict    = errors.New("role already exists")
	ErrInvalidRoleData = errors.New("invalid role data")

	ErrInstitutionRoleNotFound = errors.New("institution role not found")
	ErrInstitutionRoleConflict = errors.New("institution role name already exists for this institution")
	ErrRoleAlreadyActive       = errors.New("institution role is already active")
	ErrRoleAlreadyInactive     = errors.New("institution role is already inactive")
	ErrRoleAssignedToUsers     = errors.New("institution role is assigned to users and cannot be deleted")
	ErrRoleNotInInstitution    = errors.New("role does not belong to this institution")

	ErrPermissionNotFound    = errors.New("permission not found")
	ErrPermissionConflict    = errors.New("permission already exists")
	ErrInvalidPermissionData = errors.New("invalid permission data")
)
