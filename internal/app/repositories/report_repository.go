package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardCounts are the scalar figures of the dashboard
type DashboardCounts struct {
	ReleasesToday  int
	ActiveStudents int
	Products       int
	ActiveMenus    int
	EntriesWeek    int
	ExitsWeek      int
}

// ReportRepository runs the read-only aggregate queries behind the dashboard
// and stock alert functions
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Counts returns the dashboard figures for releases since dayStart and
// stock movements since weekStart
func (r *ReportRepository) Counts(ctx context.Context, dayStart, weekStart time.Time) (DashboardCounts, error) {
	var c DashboardCounts
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM liberacoes_lanche WHERE data_liberacao >= $1),
			(SELECT COUNT(*) FROM alunos WHERE status = 'ativo'),
			(SELECT COUNT(*) FROM produtos),
			(SELECT COUNT(*) FROM cardapios WHERE ativo = true),
			(SELECT COUNT(*) FROM movimentacoes_estoque WHERE tipo = 'entrada' AND created_at >= $2),
			(SELECT COUNT(*) FROM movimentacoes_estoque WHERE tipo = 'saida' AND created_at >= $2)`,
		dayStart, weekStart,
	).Scan(&c.ReleasesToday, &c.ActiveStudents, &c.Products, &c.ActiveMenus, &c.EntriesWeek, &c.ExitsWeek)
	if err != nil {
		return c, fmt.Errorf("failed to read dashboard counts: %w", err)
	}
	return c, nil
}

// ReleaseTimes returns the timestamps of every release since from
func (r *ReportRepository) ReleaseTimes(ctx context.Context, from time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx,
		`SELECT data_liberacao FROM liberacoes_lanche WHERE data_liberacao >= $1`, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query release times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan release time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

const productAlertColumns = `
	id::text, nome, categoria, unidade,
	quantidade_estoque::float8, quantidade_minima::float8,
	to_char(data_validade, 'YYYY-MM-DD')`

func (r *ReportRepository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]models.ProductAlert, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []models.ProductAlert{}
	for rows.Next() {
		var p models.ProductAlert
		if err := rows.Scan(&p.ID, &p.Nome, &p.Categoria, &p.Unidade,
			&p.QuantidadeEstoque, &p.QuantidadeMinima, &p.DataValidade); err != nil {
			return nil, err
		}
		alerts = append(alerts, p)
	}
	return alerts, rows.Err()
}

// LowStock returns products at or below their minimum quantity
func (r *ReportRepository) LowStock(ctx context.Context) ([]models.ProductAlert, error) {
	alerts, err := r.queryAlerts(ctx, `SELECT `+productAlertColumns+`
		FROM produtos
		WHERE quantidade_estoque <= quantidade_minima
		ORDER BY quantidade_estoque ASC, nome ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock products: %w", err)
	}
	return alerts, nil
}

// ExpiringBefore returns products whose expiry date is on or before until,
// including those already expired
func (r *ReportRepository) ExpiringBefore(ctx context.Context, until string) ([]models.ProductAlert, error) {
	alerts, err := r.queryAlerts(ctx, `SELECT `+productAlertColumns+`
		FROM produtos
		WHERE data_validade IS NOT NULL AND data_validade <= $1::date
		ORDER BY data_validade ASC, nome ASC`, until)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring products: %w", err)
	}
	return alerts, nil
}
