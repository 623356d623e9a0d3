package errors

import "errors"

var (
	ErrInstitutionNotFound        = errors.New("institution not found")
	ErrInstitutionInactive        = errors.New("institution is not active")
	ErrInstitutionAlreadyActive   = errors.New("institution is already active")
	ErrInstitutionAlreadyInactive = errors.New("institution is already inactive")

	ErrUserNotFound        = errors.New("user not found")
	ErrEmailConflict       = errors.New("user with this email already exists")
	ErrPhoneConflict       = errors.New("user with this phone number already exists")
	ErrInvalidUserData     = errors.New("invalid user data")
	ErrUserAlreadyActive   = errors.New("user is already active")
	ErrUserAlreadyInactive = errors.New("user is already inactive")
)
