package scope

import "github.com/civictrack/civictrack-backend/pkg/enums"

// ReadScope names the slice of complaints a role can see.
type ReadScope int

const (
	// ReadNone grants no complaint visibility.
	ReadNone ReadScope = iota
	// ReadOwn limits visibility to complaints the caller submitted.
	ReadOwn
	// ReadDepartment limits visibility to the caller's department category.
	ReadDepartment
	// ReadAll applies no filter.
	ReadAll
)

// Field is an editable complaint attribute.
type Field string

const (
	FieldTitle          Field = "title"
	FieldDescription    Field = "description"
	FieldLocation       Field = "location"
	FieldCoordinates    Field = "coordinates"
	FieldImages         Field = "images"
	FieldCategory       Field = "category"
	FieldPriority       Field = "priority"
	FieldStatus         Field = "status"
	FieldAssignedTo     Field = "assignedTo"
	FieldDepartment     Field = "department"
	FieldResolution     Field = "resolution"
	FieldResolutionDate Field = "resolutionDate"
)

var (
	citizenEditFields = []Field{
		FieldTitle,
		FieldDescription,
		FieldLocation,
		FieldCoordinates,
		FieldImages,
	}
	staffEditFields = append(append([]Field(nil), citizenEditFields...),
		FieldCategory,
		FieldPriority,
		FieldStatus,
		FieldAssignedTo,
		FieldDepartment,
		FieldResolution,
		FieldResolutionDate,
	)
)

// Capability is the static permission set granted to a role.
type Capability struct {
	Read           ReadScope
	TargetedUpdate bool
	EditFields     []Field
	CanDelete      bool
	CanAdminister  bool
}

var capabilityTable = map[enums.Role]Capability{
	enums.RoleCitizen: {
		Read:       ReadOwn,
		EditFields: citizenEditFields,
	},
	enums.RoleAdmin: {
		Read:           ReadDepartment,
		TargetedUpdate: true,
		EditFields:     staffEditFields,
	},
	enums.RoleSuperAdmin: {
		Read:           ReadAll,
		TargetedUpdate: true,
		EditFields:     staffEditFields,
		CanDelete:      true,
		CanAdminister:  true,
	},
}

// Capabilities returns the permission set for role. Unknown roles get nothing.
func Capabilities(role enums.Role) Capability {
	return capabilityTable[role]
}

// Allows reports whether f is in the role's edit allow-list.
func (c Capability) Allows(f Field) bool {
	for _, allowed := range c.EditFields {
		if allowed == f {
			return true
		}
	}
	return false
}
