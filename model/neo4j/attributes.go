// model/neo4j/attributes.go
package campus_neo4j

// Attribute Keys
const (
	// AttrID represents the unique identifier of a node
	AttrID = "id"

	// AttrName represents the name attribute of a node
	AttrName = "name"

	// AttrDescription represents the description attribute of a node
	AttrDescription = "description"

	// AttrInstitutionID represents the owning institution of a node
	AttrInstitutionID = "institutionID"

	// AttrEmail represents the email attribute of a user
	AttrEmail = "email"

	// AttrIsActive represents whether a node is active
	AttrIsActive = "isActive"

	// AttrCreatedAt represents the creation timestamp of a node
	AttrCreatedAt = "createdAt"

	// AttrUpdatedAt represents the last update timestamp of a node
	AttrUpdatedAt = "updatedAt"

	// AttrDeletedAt represents the soft-delete timestamp of a node
	AttrDeletedAt = "deletedAt"
)
