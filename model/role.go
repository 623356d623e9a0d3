package model

import "time"

// Names of the baseline roles provisioned at startup. System login is
// restricted to holders of the super admin role.
const (
	SuperAdminRoleName       = "Super Admin"
	InstitutionAdminRoleName = "Institution Admin"
)

// Role is a system-level bundle of permissions (e.g. Super Admin). Roles are
// global: they are not owned by any institution.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`

	// PermissionIDs holds the references as stored; Permissions is filled
	// in by read paths that populate the referenced catalog entries.
	PermissionIDs []string     `json:"permissionIds,omitempty"`
	Permissions   []Permission `json:"permissions,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
