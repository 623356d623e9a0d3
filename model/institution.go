package model

type InstitutionType string

const (
	InstitutionTypeSchool     InstitutionType = "SCHOOL"
	InstitutionTypeCollege    InstitutionType = "COLLEGE"
	InstitutionTypeUniversity InstitutionType = "UNIVERSITY"
)

// Institution is the tenant. All institution-scoped records and principals
// reference it by id.
type Institution struct {
	ID      string          `json:"id"`
	Name    string          `json:"name" binding:"required"`
	Address string          `json:"address" binding:"required"`
	Phone   string          `json:"phone" binding:"required"`
	Email   string          `json:"email" binding:"required,email"`
	Website string          `json:"website,omitempty"`
	Type    InstitutionType `json:"type" binding:"required"`

	Auditable
}
