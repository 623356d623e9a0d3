// model/neo4j/relationships.go
package campus_neo4j

// Relationship Types
const (
	// RelBelongsTo links institution-scoped records and principals to their institution
	RelBelongsTo = "BELONGS_TO"

	// RelHasRole links a user to its roles (system or institution variant)
	RelHasRole = "HAS_ROLE"

	// RelHasPermission links a role to its catalog permissions
	RelHasPermission = "HAS_PERMISSION"

	// RelPartOf links a class to its program and a section to its class
	RelPartOf = "PART_OF"

	// RelForStudent links an enrollment to the enrolled institution user
	RelForStudent = "FOR_STUDENT"

	// RelInClass links an enrollment to its class
	RelInClass = "IN_CLASS"

	// RelInSection links an enrollment to its section
	RelInSection = "IN_SECTION"
)
