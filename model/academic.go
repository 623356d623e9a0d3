package model

import "time"

// AcademicProgram is a course of study offered by an institution. Program
// names are unique per institution.
type AcademicProgram struct {
	ID              string `json:"id"`
	InstitutionID   string `json:"institutionId"`
	Name            string `json:"name" binding:"required"`
	DurationInYears int    `json:"durationInYears,omitempty"`

	Auditable
}

// AcademicClass is a class taught in one academic year. The combination of
// institution, name and academic year is unique.
type AcademicClass struct {
	ID            string     `json:"id"`
	InstitutionID string     `json:"institutionId"`
	Name          string     `json:"name" binding:"required"`
	ProgramID     string     `json:"programId,omitempty"`
	AcademicYear  string     `json:"academicYear" binding:"required"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`

	Auditable
}

// Section is a subdivision of a class. Section names are unique per class.
type Section struct {
	ID             string `json:"id"`
	InstitutionID  string `json:"institutionId"`
	Name           string `json:"name" binding:"required"`
	ClassID        string `json:"classId" binding:"required"`
	ClassTeacherID string `json:"classTeacherId,omitempty"`

	Auditable
}

// StudentEnrollment records one student's enrollment for an academic year.
// A student has at most one enrollment per institution per academic year.
type StudentEnrollment struct {
	ID            string `json:"id"`
	StudentID     string `json:"studentId" binding:"required"`
	InstitutionID string `json:"institutionId"`
	ClassID       string `json:"classId" binding:"required"`
	SectionID     string `json:"sectionId,omitempty"`
	AcademicYear  string `json:"academicYear" binding:"required"`

	Auditable
}
