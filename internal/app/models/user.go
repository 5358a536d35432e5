package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     *string   `json:"full_name" db:"full_name"`
	Role         RoleType  `json:"role" db:"role"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultUser is an account guaranteed to exist after startup
type DefaultUser struct {
	Email    string
	FullName string
	Role     RoleType
	Password string
}
