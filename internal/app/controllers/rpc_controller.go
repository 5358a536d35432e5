package controllers

import (
	"net/http"

	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/app/services"
	"github.com/cantinaverde/cantina/internal/middleware"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RPCController serves the named procedures under /rpc
type RPCController struct {
	stockService *services.StockService
	logger       zerolog.Logger
}

// NewRPCController creates a new RPCController
func NewRPCController(stockService *services.StockService, logger zerolog.Logger) *RPCController {
	return &RPCController{stockService: stockService, logger: logger}
}

// Call dispatches POST /rpc/:name
func (c *RPCController) Call(ctx *gin.Context) {
	switch name := ctx.Param("name"); name {
	case "update_produto_estoque":
		c.UpdateStock(ctx)
	default:
		middleware.HandleAPIError(ctx, apperrors.NewResourceNotFoundError("function "+name+" not found"))
	}
}

// UpdateStock applies a stock movement
// @Summary Adjust product stock
// @Description Adds (entrada) or removes (saida) quantidade from a product and records the movement. Stock never goes below zero.
// @Tags RPC
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StockAdjustmentRequest true "Movement"
// @Success 200 {object} dto.OkResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Only admins may adjust stock"
// @Router /rpc/update_produto_estoque [post]
func (c *RPCController) UpdateStock(ctx *gin.Context) {
	var req dto.StockAdjustmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if _, err := c.stockService.Adjust(ctx.Request.Context(), middleware.ActorFrom(ctx), req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OkResponse{Ok: true})
}
