package seed

import (
	"context"
	"errors"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// UserUpserter stores default accounts
type UserUpserter interface {
	UpsertUser(ctx context.Context, u models.DefaultUser, passwordHash string) error
}

// DefaultUsers returns the accounts every installation starts with, one per role
func DefaultUsers(password string) []models.DefaultUser {
	return []models.DefaultUser{
		{Email: "superadmin@cantina.com", FullName: "Super Administrador", Role: models.RoleSuperAdmin, Password: password},
		{Email: "admin@cantina.com", FullName: "Administrador", Role: models.RoleAdminNormal, Password: password},
		{Email: "user@cantina.com", FullName: "Usuário", Role: models.RoleUser, Password: password},
	}
}

// CreateDefaultData upserts the default accounts and their user_roles rows.
// Failures are collected so that one bad account does not hide the others.
func CreateDefaultData(ctx context.Context, users UserUpserter, password string, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default users...")
	var finalErr error

	for _, u := range DefaultUsers(password) {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if err := users.UpsertUser(ctx, u, hash); err != nil {
			lgr.Error().Err(err).Str("email", u.Email).Msg("Error upserting default user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Debug().Str("email", u.Email).Str("role", string(u.Role)).Msg("Default user ready")
	}

	if finalErr == nil {
		lgr.Info().Msg("Default users ready")
	}
	return finalErr
}
