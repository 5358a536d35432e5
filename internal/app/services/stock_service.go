package services

import (
	"context"
	"strings"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/app/repositories"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/helpers"
	"github.com/cantinaverde/cantina/internal/pkg/metrics"
	"github.com/cantinaverde/cantina/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

// StockService adjusts product stock on behalf of admins
type StockService struct {
	store     StockStore
	publisher Publisher
	logger    zerolog.Logger
}

// NewStockService creates a new StockService
func NewStockService(store StockStore, publisher Publisher, logger zerolog.Logger) *StockService {
	return &StockService{store: store, publisher: publisherOrNoop(publisher), logger: logger}
}

// Adjust validates req and applies it as one movement. Stock never drops
// below zero.
func (s *StockService) Adjust(ctx context.Context, actor models.Actor, req dto.StockAdjustmentRequest) (*models.StockAdjustment, error) {
	if !actor.Role.CanManageStock() {
		return nil, apperrors.NewForbiddenError("only administrators can adjust stock")
	}

	movement, err := movementFromRequest(req)
	if err != nil {
		return nil, err
	}
	if movement.UsuarioID == nil && actor.UserID != "" {
		id := actor.UserID
		movement.UsuarioID = &id
	}

	adj, err := s.store.ApplyMovement(ctx, movement)
	if err != nil {
		return nil, err
	}

	metrics.StockMovements.WithLabelValues(string(movement.Tipo)).Inc()
	s.logger.Info().
		Str("produto_id", movement.ProdutoID).
		Str("tipo", string(movement.Tipo)).
		Float64("quantidade", movement.Quantidade).
		Float64("estoque", adj.NovoEstoque).
		Msg("Stock adjusted")

	s.publisher.Publish(websocket.EventStockAdjusted, repositories.TableStockMovements, adj)
	return adj, nil
}

// movementFromRequest resolves legacy aliases and validates the fields
func movementFromRequest(req dto.StockAdjustmentRequest) (models.StockMovement, error) {
	var m models.StockMovement

	tipo := req.Tipo
	if tipo == "" {
		tipo = req.TipoMovimentacao
	}
	quantity := req.Quantidade
	if isBlankQuantity(quantity) {
		quantity = req.NovaQuantidade
	}

	produtoID := strings.TrimSpace(req.ProdutoID)
	if produtoID == "" || tipo == "" || isBlankQuantity(quantity) {
		return m, apperrors.NewCustomError(apperrors.ErrMissingStockFields,
			"produto_id, tipo and quantidade are required")
	}
	if !isUUID(produtoID) {
		return m, apperrors.NewCustomError(apperrors.ErrValidationFailed, "produto_id must be a UUID").WithField("produto_id")
	}

	m.Tipo = models.MovementType(tipo)
	if !m.Tipo.Valid() {
		return m, apperrors.NewCustomError(apperrors.ErrInvalidMovement, "tipo must be entrada or saida").WithField("tipo")
	}

	q, ok := helpers.ToFloat(quantity)
	if !ok || q <= 0 {
		return m, apperrors.NewCustomError(apperrors.ErrInvalidQuantity, "quantidade must be a positive number").WithField("quantidade")
	}

	m.ProdutoID = produtoID
	m.Quantidade = q
	if req.Observacao != nil && strings.TrimSpace(*req.Observacao) != "" {
		obs := *req.Observacao
		m.Observacao = &obs
	}
	if req.UsuarioID != nil && *req.UsuarioID != "" {
		uid := *req.UsuarioID
		m.UsuarioID = &uid
	}
	return m, nil
}

// isBlankQuantity matches the values older clients send when a field is unset
func isBlankQuantity(v interface{}) bool {
	switch q := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(q) == ""
	case float64:
		return q == 0
	}
	return false
}
