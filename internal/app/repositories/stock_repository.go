package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/db"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockRepository applies stock movements to products
type StockRepository struct {
	db *pgxpool.Pool
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *pgxpool.Pool) *StockRepository {
	return &StockRepository{db: db}
}

// ApplyMovement updates the product's stock, clamped at zero, and records
// the movement. Both writes commit together or not at all.
func (r *StockRepository) ApplyMovement(ctx context.Context, m models.StockMovement) (*models.StockAdjustment, error) {
	delta := m.Quantidade
	if m.Tipo == models.MovementOut {
		delta = -delta
	}

	result := &models.StockAdjustment{Movement: m}
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE produtos
			SET quantidade_estoque = GREATEST(0, quantidade_estoque + $1::numeric), updated_at = NOW()
			WHERE id = $2
			RETURNING nome, quantidade_estoque::float8, quantidade_minima::float8`,
			delta, m.ProdutoID,
		).Scan(&result.ProdutoNome, &result.NovoEstoque, &result.EstoqueMinimo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewResourceNotFoundError("product not found")
			}
			return fmt.Errorf("failed to update product stock: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO movimentacoes_estoque (produto_id, tipo, quantidade, observacao, usuario_id, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING id::text, created_at`,
			m.ProdutoID, string(m.Tipo), m.Quantidade, m.Observacao, m.UsuarioID,
		).Scan(&result.Movement.ID, &result.Movement.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert stock movement: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrResourceNotFound) {
			logger.Error().Err(err).Str("produto_id", m.ProdutoID).Msg("Stock adjustment rolled back")
		}
		return nil, err
	}
	return result, nil
}
