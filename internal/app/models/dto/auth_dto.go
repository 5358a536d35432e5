package dto

import "github.com/cantinaverde/cantina/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
}

// SessionUser is the user as exposed to the UI
type SessionUser struct {
	ID       string          `json:"id"`
	Email    string          `json:"email"`
	FullName *string         `json:"full_name"`
	Role     models.RoleType `json:"role"`
}

// NewSessionUser projects a stored user for the UI
func NewSessionUser(u *models.User) SessionUser {
	return SessionUser{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// LoginResponse represents successful authentication response
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expires_in"`
	User      SessionUser `json:"user"`
}

// MeResponse wraps the current session user
type MeResponse struct {
	User SessionUser `json:"user"`
}
