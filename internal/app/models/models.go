package models

// RoleType defines the user role type
type RoleType string

const (
	RoleUser        RoleType = "user"
	RoleAdminNormal RoleType = "admin_normal"
	RoleSuperAdmin  RoleType = "super_admin"
)

// Valid reports whether r is one of the known roles
func (r RoleType) Valid() bool {
	switch r {
	case RoleUser, RoleAdminNormal, RoleSuperAdmin:
		return true
	}
	return false
}

// CanManageStock reports whether the role may call the stock adjustment RPC
func (r RoleType) CanManageStock() bool {
	return r == RoleAdminNormal || r == RoleSuperAdmin
}

// MealType is the kind of meal a menu or release refers to
type MealType string

const (
	MealSnack MealType = "lanche"
	MealLunch MealType = "almoco"
)

// MovementType is the direction of a stock movement
type MovementType string

const (
	MovementIn  MovementType = "entrada"
	MovementOut MovementType = "saida"
)

// Valid reports whether m is entrada or saida
func (m MovementType) Valid() bool {
	return m == MovementIn || m == MovementOut
}

// StudentStatus is the enrollment state of a student
type StudentStatus string

const (
	StudentActive    StudentStatus = "ativo"
	StudentInactive  StudentStatus = "inativo"
	StudentSuspended StudentStatus = "suspenso"
)

// Record is a table row keyed by column name. Generic CRUD endpoints read and
// write Records so that every allow-listed table shares one code path.
type Record map[string]interface{}

// Keys returns the record's column names in no particular order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns a shallow copy of r
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
