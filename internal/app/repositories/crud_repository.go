package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/db"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/dberrors"
	"github.com/cantinaverde/cantina/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WriteOptions carries side effects that must commit with a write
type WriteOptions struct {
	// DeactivateOtherMenus clears ativo on every other cardapio first
	DeactivateOtherMenus bool
}

// CrudRepository performs generic row operations on allow-listed tables
type CrudRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCrudRepository creates a new generic table repository
func NewCrudRepository(db *pgxpool.Pool) *CrudRepository {
	return &CrudRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns the rows of t matching opts, enriched and redacted
func (r *CrudRepository) List(ctx context.Context, t *Table, opts ListOptions) ([]models.Record, error) {
	query, args, err := opts.apply(t, t.selectList(r.sb)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query for %s: %w", t.Name, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.listError(t, err)
	}
	records, err := collectRecords(rows)
	if err != nil {
		return nil, r.listError(t, err)
	}

	for _, rec := range records {
		if t.shape != nil {
			t.shape(rec)
		}
		Redact(rec)
	}
	return records, nil
}

// A filter value Postgres cannot cast to the column type is the caller's mistake
func (r *CrudRepository) listError(t *Table, err error) error {
	if dberrors.IsInvalidInput(err) {
		return apperrors.NewCustomError(apperrors.ErrInvalidFilter, "filter value does not match the column type")
	}
	logger.Error().Err(err).Str("table", t.Name).Msg("Error listing rows")
	return fmt.Errorf("failed to list %s: %w", t.Name, err)
}

// GetByID returns a single redacted row
func (r *CrudRepository) GetByID(ctx context.Context, t *Table, id string) (models.Record, error) {
	query, args, err := r.sb.Select("*").From(t.Name).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get query for %s: %w", t.Name, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s row: %w", t.Name, err)
	}
	rec, err := collectOneRecord(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get %s row: %w", t.Name, err)
	}
	return Redact(rec), nil
}

// Insert stores data in t and returns the created row
func (r *CrudRepository) Insert(ctx context.Context, t *Table, data models.Record, opts WriteOptions) (models.Record, error) {
	builder := r.sb.Insert(t.Name).SetMap(map[string]interface{}(data)).Suffix("RETURNING *")

	var created models.Record
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if opts.DeactivateOtherMenus {
			if err := r.deactivateMenus(ctx, tx, ""); err != nil {
				return err
			}
		}
		var err error
		created, err = r.writeReturning(ctx, tx, builder)
		return err
	})
	if err != nil {
		return nil, r.writeError(t, "insert", err)
	}
	return Redact(created), nil
}

// Update modifies the row id of t and returns it
func (r *CrudRepository) Update(ctx context.Context, t *Table, id string, data models.Record, opts WriteOptions) (models.Record, error) {
	builder := r.sb.Update(t.Name).SetMap(map[string]interface{}(data))
	if t.HasUpdatedAt() {
		if _, ok := data["updated_at"]; !ok {
			builder = builder.Set("updated_at", squirrel.Expr("NOW()"))
		}
	}
	builder = builder.Where(squirrel.Eq{"id": id}).Suffix("RETURNING *")

	var updated models.Record
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if opts.DeactivateOtherMenus {
			if err := r.deactivateMenus(ctx, tx, id); err != nil {
				return err
			}
		}
		var err error
		updated, err = r.writeReturning(ctx, tx, builder)
		return err
	})
	if err != nil {
		return nil, r.writeError(t, "update", err)
	}
	return Redact(updated), nil
}

// Delete removes the row id of t
func (r *CrudRepository) Delete(ctx context.Context, t *Table, id string) error {
	query, args, err := r.sb.Delete(t.Name).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query for %s: %w", t.Name, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete %s row: %w", t.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrResourceNotFound
	}
	return nil
}

// writeError translates a failed insert or update. Values Postgres cannot
// cast to the column type are the caller's mistake; other failures stay
// storage errors.
func (r *CrudRepository) writeError(t *Table, op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrResourceNotFound
	case dberrors.IsInvalidInput(err):
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "value does not match the column type")
	case dberrors.IsUndefinedColumn(err):
		return apperrors.NewCustomError(apperrors.ErrUnknownColumn, fmt.Sprintf("unknown column for table %s", t.Name))
	case dberrors.IsDuplicateConstraintError(err, "one_active_cardapio"):
		logger.Warn().Err(err).Msg("Concurrent menu activation rejected")
	}
	return fmt.Errorf("failed to %s %s row: %w", op, t.Name, err)
}

func (r *CrudRepository) writeReturning(ctx context.Context, q db.Querier, builder squirrel.Sqlizer) (models.Record, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectOneRecord(rows)
}

// deactivateMenus clears ativo on every cardapio except exceptID
func (r *CrudRepository) deactivateMenus(ctx context.Context, q db.Querier, exceptID string) error {
	builder := r.sb.Update(TableMenus).Set("ativo", false).Where(squirrel.Eq{"ativo": true})
	if exceptID != "" {
		builder = builder.Where(squirrel.NotEq{"id": exceptID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to deactivate menus: %w", err)
	}
	return nil
}
