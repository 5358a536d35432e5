package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/cantinaverde/cantina/internal/app/services"
	"github.com/cantinaverde/cantina/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// TableController exposes the allow-listed tables under /api/:table
type TableController struct {
	tableService *services.TableService
	logger       zerolog.Logger
}

// NewTableController creates a new TableController
func NewTableController(tableService *services.TableService, logger zerolog.Logger) *TableController {
	return &TableController{tableService: tableService, logger: logger}
}

// List returns the rows of a table
// @Summary List rows
// @Description Filters use PostgREST syntax: ?col=eq.value, ?col=in.(a,b), order=col.desc, limit, offset
// @Tags Tables
// @Produce json
// @Security BearerAuth
// @Param table path string true "Table name"
// @Success 200 {array} object
// @Header 200 {integer} X-Total-Count "Number of rows returned"
// @Router /api/{table} [get]
func (c *TableController) List(ctx *gin.Context) {
	rows, err := c.tableService.List(ctx.Request.Context(), middleware.ActorFrom(ctx), ctx.Param("table"), ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("X-Total-Count", strconv.Itoa(len(rows)))
	ctx.JSON(http.StatusOK, rows)
}

// Get returns one row by id
// @Summary Get one row
// @Tags Tables
// @Produce json
// @Security BearerAuth
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Success 200 {object} object
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/{table}/{id} [get]
func (c *TableController) Get(ctx *gin.Context) {
	row, err := c.tableService.Get(ctx.Request.Context(), middleware.ActorFrom(ctx), ctx.Param("table"), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, row)
}

// Create inserts an object or an array of objects
// @Summary Insert one row (object body) or several rows (array body)
// @Tags Tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param table path string true "Table name"
// @Param request body object true "Row or rows"
// @Success 201 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/{table} [post]
func (c *TableController) Create(ctx *gin.Context) {
	body, ok := c.decodeBody(ctx)
	if !ok {
		return
	}
	result, err := c.tableService.Create(ctx.Request.Context(), middleware.ActorFrom(ctx), ctx.Param("table"), body)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, result.Body())
}

// Update modifies one row by id
// @Summary Update one row
// @Tags Tables
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Param request body object true "Fields to change"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/{table}/{id} [put]
// @Router /api/{table}/{id} [patch]
func (c *TableController) Update(ctx *gin.Context) {
	body, ok := c.decodeBody(ctx)
	if !ok {
		return
	}
	var fields map[string]interface{}
	if body != nil {
		if fields, ok = body.(map[string]interface{}); !ok {
			middleware.RespondBadRequest(ctx, "body must be a JSON object")
			return
		}
	}
	row, err := c.tableService.Update(ctx.Request.Context(), middleware.ActorFrom(ctx), ctx.Param("table"), ctx.Param("id"), fields)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, row)
}

// Delete removes one row by id
// @Summary Delete one row
// @Tags Tables
// @Security BearerAuth
// @Param table path string true "Table name"
// @Param id path string true "Row id"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/{table}/{id} [delete]
func (c *TableController) Delete(ctx *gin.Context) {
	if err := c.tableService.Delete(ctx.Request.Context(), middleware.ActorFrom(ctx), ctx.Param("table"), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// decodeBody reads an arbitrary JSON body. An empty body decodes to nil.
func (c *TableController) decodeBody(ctx *gin.Context) (interface{}, bool) {
	data, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		middleware.RespondBadRequest(ctx, "failed to read request body")
		return nil, false
	}
	if len(data) == 0 {
		return nil, true
	}
	var body interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		c.logger.Debug().Err(err).Msg("Malformed JSON body")
		middleware.RespondBadRequest(ctx, "malformed JSON body")
		return nil, false
	}
	return body, true
}
