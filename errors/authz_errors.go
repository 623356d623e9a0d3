package errors

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrPrincipalMissing  = errors.New("no authenticated principal on request")
	ErrPrincipalInactive = errors.New("principal is inactive")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotSuperAdmin      = errors.New("super admin privileges required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)
