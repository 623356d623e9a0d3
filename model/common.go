package model

import (
	"time"

	"github.com/google/uuid"
)

// ID prefixes, one per entity kind. Generated ids look like "inst-role::<uuid>".
const (
	PrefixUser              = "user"
	PrefixRole              = "role"
	PrefixPermission        = "perm"
	PrefixInstitution       = "inst"
	PrefixInstitutionUser   = "inst-user"
	PrefixInstitutionRole   = "inst-role"
	PrefixAcademicProgram   = "prog"
	PrefixAcademicClass     = "class"
	PrefixSection           = "sect"
	PrefixStudentEnrollment = "enrl"
)

func NewID(prefix string) string {
	return prefix + "::" + uuid.New().String()
}

// Auditable carries the activation, audit and soft-delete fields shared by
// every tenant-scoped record. A record with DeletedAt set is treated as gone
// by every read path; it is never hard-deleted.
type Auditable struct {
	IsActive      bool       `json:"isActive"`
	CreatedBy     string     `json:"createdBy,omitempty"`
	LastUpdatedBy string     `json:"lastUpdatedBy,omitempty"`
	DeletedBy     string     `json:"deletedBy,omitempty"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
