// model/neo4j/nodes.go
package campus_neo4j

// Node Labels
const (
	// LabelInstitution represents a tenant in the system
	LabelInstitution = "Institution"

	// LabelUser represents a system-level user
	LabelUser = "User"

	// LabelInstitutionUser represents a user scoped to one institution
	LabelInstitutionUser = "InstitutionUser"

	// LabelRole represents a global role
	LabelRole = "Role"

	// LabelInstitutionRole represents a role owned by one institution
	LabelInstitutionRole = "InstitutionRole"

	// LabelPermission represents a catalog permission
	LabelPermission = "Permission"

	// LabelAcademicProgram represents a course of study
	LabelAcademicProgram = "AcademicProgram"

	// LabelAcademicClass represents a class in an academic year
	LabelAcademicClass = "AcademicClass"

	// LabelSection represents a subdivision of a class
	LabelSection = "Section"

	// LabelStudentEnrollment represents a student's enrollment record
	LabelStudentEnrollment = "StudentEnrollment"
)
