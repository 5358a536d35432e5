package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/db"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users and their roles
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var userColumns = []string{"id::text", "email", "full_name", "role", "password_hash", "created_at", "updated_at"}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) getBy(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	query, args, err := r.sb.Select(userColumns...).From(TableUsers).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, err
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// DeleteUser removes a user after detaching it from releases and stock
// movements, all in one transaction.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		for _, table := range []string{TableReleases, TableStockMovements} {
			query, args, err := r.sb.Update(table).Set("usuario_id", nil).Where(squirrel.Eq{"usuario_id": id}).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to detach user from %s: %w", table, err)
			}
		}

		query, args, err := r.sb.Delete(TableUsers).Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrResourceNotFound
		}
		return nil
	})
}

// UpsertUser creates or refreshes an account keyed by email and makes sure
// the matching user_roles row exists.
func (r *UserRepository) UpsertUser(ctx context.Context, u models.DefaultUser, passwordHash string) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (email, full_name, role, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE
				SET full_name = EXCLUDED.full_name,
					role = EXCLUDED.role,
					password_hash = EXCLUDED.password_hash,
					updated_at = NOW()`,
			u.Email, u.FullName, string(u.Role), passwordHash)
		if err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.Email, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role)
			SELECT id, $1 FROM users WHERE email = $2
			ON CONFLICT (user_id, role) DO NOTHING`,
			string(u.Role), u.Email)
		if err != nil {
			return fmt.Errorf("failed to upsert role for %s: %w", u.Email, err)
		}
		return nil
	})
}
