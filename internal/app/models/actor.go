package models

// Actor is the authenticated caller of a request, taken from its token
type Actor struct {
	UserID string
	Email  string
	Role   RoleType
}
