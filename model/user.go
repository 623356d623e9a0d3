package model

// User is a system-level identity. InstitutionID is set for users who
// administer a single institution (institution admins); it is empty for
// platform-level users such as the super admin.
type User struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Password    string `json:"-"`

	// RoleIDs references global roles. The field is multi-valued but a user
	// is expected to carry exactly one meaningful role.
	RoleIDs []string `json:"role,omitempty"`
	Roles   []Role   `json:"roles,omitempty"`

	InstitutionID string `json:"institutionId,omitempty"`

	Auditable
}
