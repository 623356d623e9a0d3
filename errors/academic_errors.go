package errors

import "errors"

var (
	ErrProgramNotFound        = errors.New("academic program not found")
	ErrProgramConflict        = errors.New("program name already exists for this institution")
	ErrProgramAlreadyActive   = errors.New("academic program is already active")
	ErrProgramAlreadyInactive = errors.New("academic program is already inactive")

	ErrClassNotFound        = errors.New("academic class not found")
	ErrClassConflict        = errors.New("class name already exists for this academic year in this institution")
	ErrClassAlreadyActive   = errors.New("academic class is already active")
	ErrClassAlreadyInactive = errors.New("academic class is already inactive")

	ErrSectionNotFound        = errors.New("section not found")
	ErrSectionConflict        = errors.New("section name already exists for this class")
	ErrSectionAlreadyActive   = errors.New("section is already active")
	ErrSectionAlreadyInactive = errors.New("section is already inactive")

	ErrEnrollmentNotFound        = errors.New("enrollment not found")
	ErrEnrollmentConflict        = errors.New("student is already enrolled for this academic year in this institution")
	ErrEnrollmentAlreadyActive   = errors.New("enrollment is already active")
	ErrEnrollmentAlreadyInactive = errors.New("enrollment is already inactive")
)
