package model

// InstitutionUser is a tenant-scoped identity. Every permission granted to
// it is implicitly constrained to records of its own institution; see the
// authz package for how that constraint is attached.
type InstitutionUser struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Password    string `json:"-"`

	InstitutionID string `json:"institutionId"`

	// RoleIDs references institution roles of the same institution.
	RoleIDs []string          `json:"role,omitempty"`
	Roles   []InstitutionRole `json:"roles,omitempty"`

	Auditable
}
