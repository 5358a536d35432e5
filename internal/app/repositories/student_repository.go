package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Student lookup columns
const (
	ColumnMatricula   = "matricula"
	ColumnNumeroPasta = "numero_pasta"
)

// StudentRepository resolves scanned codes to students
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FindByCode returns the first student whose column equals code, or nil
func (r *StudentRepository) FindByCode(ctx context.Context, column, code string) (*models.StudentLookup, error) {
	if column != ColumnMatricula && column != ColumnNumeroPasta {
		return nil, fmt.Errorf("unsupported lookup column %q", column)
	}

	query, args, err := r.sb.Select(
		"a.id::text", "a.nome", "a.matricula", "a.numero_pasta",
		"COALESCE(t.nome, '')", "COALESCE(a.e_bolsista, false)",
	).
		From("alunos a").
		LeftJoin("turmas t ON t.id = a.turma_id").
		Where(squirrel.Eq{"a." + column: code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student lookup query: %w", err)
	}

	var s models.StudentLookup
	err = r.db.QueryRow(ctx, query, args...).Scan(&s.ID, &s.Nome, &s.Matricula, &s.NumeroPasta, &s.TurmaNome, &s.EBolsista)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	return &s, nil
}

// IsScholarship reports whether the student is flagged e_bolsista
func (r *StudentRepository) IsScholarship(ctx context.Context, studentID string) (bool, error) {
	var bolsista bool
	err := r.db.QueryRow(ctx, `SELECT COALESCE(e_bolsista, false) FROM alunos WHERE id = $1`, studentID).Scan(&bolsista)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read scholarship flag: %w", err)
	}
	return bolsista, nil
}
