package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReleaseRepository reads snack/meal releases and the active menu
type ReleaseRepository struct {
	db *pgxpool.Pool
}

// NewReleaseRepository creates a new release repository
func NewReleaseRepository(db *pgxpool.Pool) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

// History returns the latest releases, newest first. Names fall back to the
// snapshot stored on the release when the joined row no longer exists.
func (r *ReleaseRepository) History(ctx context.Context, limit int) ([]models.ReleaseHistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ll.id::text, ll.data_liberacao, ll.observacao,
		       COALESCE(t.nome, ll.turma_nome, '-') AS turma_nome,
		       COALESCE(c.nome, ll.cardapio_nome, '-') AS cardapio_nome,
		       COALESCE(c.tipo_refeicao, ll.tipo_refeicao, 'lanche') AS tipo_refeicao,
		       a.id::text, a.nome, a.matricula, a.numero_pasta
		FROM liberacoes_lanche ll
		LEFT JOIN alunos a ON a.id = ll.aluno_id
		LEFT JOIN turmas t ON t.id = a.turma_id
		LEFT JOIN cardapios c ON c.id = ll.cardapio_id
		ORDER BY ll.data_liberacao DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query release history: %w", err)
	}
	defer rows.Close()

	entries := []models.ReleaseHistoryEntry{}
	for rows.Next() {
		var e models.ReleaseHistoryEntry
		var tipo string
		var alunoID, alunoNome, alunoMatricula, alunoPasta *string
		if err := rows.Scan(
			&e.ID, &e.DataLiberacao, &e.Observacao,
			&e.TurmaNome, &e.CardapioNome, &tipo,
			&alunoID, &alunoNome, &alunoMatricula, &alunoPasta,
		); err != nil {
			return nil, fmt.Errorf("failed to scan release history row: %w", err)
		}
		e.TipoRefeicao = models.MealType(tipo)
		if alunoID != nil {
			e.Aluno = &models.HistoryStudent{ID: *alunoID, NumeroPasta: alunoPasta}
			if alunoNome != nil {
				e.Aluno.Nome = *alunoNome
			}
			if alunoMatricula != nil {
				e.Aluno.Matricula = *alunoMatricula
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read release history: %w", err)
	}
	return entries, nil
}

// LastReleaseAt returns when the student last received a release, or nil
func (r *ReleaseRepository) LastReleaseAt(ctx context.Context, studentID string) (*time.Time, error) {
	var last *time.Time
	err := r.db.QueryRow(ctx,
		`SELECT MAX(data_liberacao) FROM liberacoes_lanche WHERE aluno_id = $1`, studentID,
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to read last release: %w", err)
	}
	return last, nil
}

// ActiveMenu returns the menu flagged ativo, or nil when none is
func (r *ReleaseRepository) ActiveMenu(ctx context.Context) (*models.ActiveMenu, error) {
	var m models.ActiveMenu
	var tipo string
	err := r.db.QueryRow(ctx, `
		SELECT id::text, nome, COALESCE(tipo_refeicao, 'lanche')
		FROM cardapios
		WHERE ativo = true
		LIMIT 1`,
	).Scan(&m.ID, &m.Nome, &tipo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read active menu: %w", err)
	}
	m.TipoRefeicao = models.MealType(tipo)
	return &m, nil
}
