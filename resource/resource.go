// Package resource names the protected resource categories that permissions
// and route policies refer to. These strings feed permission slugs, so they
// are part of the stable vocabulary shared with seed and audit tooling.
package resource

const (
	Me              = "Me"
	Institution     = "Institution"
	InstitutionRole = "InstitutionRole"
	InstitutionUser = "InstitutionUser"
	Academic        = "Academic"
)

// All lists every known resource category, in seeding order.
func All() []string {
	return []string{Me, Institution, InstitutionRole, InstitutionUser, Academic}
}
