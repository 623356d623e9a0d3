package model

// InstitutionRole is a tenant-scoped role owned by exactly one institution.
// Role names are unique within their institution. A role still referenced by
// an institution user cannot be deleted.
type InstitutionRole struct {
	ID            string `json:"id"`
	Name          string `json:"name" binding:"required"`
	InstitutionID string `json:"institutionId"`
	Description   string `json:"description,omitempty"`

	PermissionIDs []string     `json:"permissionIds,omitempty"`
	Permissions   []Permission `json:"permissions,omitempty"`

	Auditable
}
