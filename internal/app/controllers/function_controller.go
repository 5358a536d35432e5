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

// FunctionController serves the edge-function style endpoints under /functions
type FunctionController struct {
	studentService *services.StudentService
	releaseService *services.ReleaseService
	reportService  *services.ReportService
	handlers       map[string]gin.HandlerFunc
	logger         zerolog.Logger
}

// NewFunctionController creates a new FunctionController
func NewFunctionController(
	studentService *services.StudentService,
	releaseService *services.ReleaseService,
	reportService *services.ReportService,
	logger zerolog.Logger,
) *FunctionController {
	c := &FunctionController{
		studentService: studentService,
		releaseService: releaseService,
		reportService:  reportService,
		logger:         logger,
	}
	c.handlers = map[string]gin.HandlerFunc{
		"buscar_aluno":        c.FindStudent,
		"liberacoes_history":  c.History,
		"verificar_liberacao": c.CheckRelease,
		"dashboard_stats":     c.Dashboard,
		"estoque_alertas":     c.StockAlerts,
	}
	return c
}

// Invoke dispatches POST /functions/:name
func (c *FunctionController) Invoke(ctx *gin.Context) {
	name := ctx.Param("name")
	h, ok := c.handlers[name]
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.NewResourceNotFoundError("function "+name+" not found"))
		return
	}
	h(ctx)
}

// FindStudent resolves a scanned code
// @Summary Find a student by matricula (12 digits) or folder number (4 digits)
// @Tags Functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StudentLookupRequest true "Code"
// @Success 200 {object} dto.StudentLookupResponse
// @Failure 400 {object} dto.ErrorResponse "Code missing"
// @Router /functions/buscar_aluno [post]
func (c *FunctionController) FindStudent(ctx *gin.Context) {
	var req dto.StudentLookupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	student, err := c.studentService.Lookup(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.StudentLookupResponse{Aluno: student})
}

// History returns the latest releases
// @Summary Most recent releases
// @Tags Functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.HistoryRequest false "Limit"
// @Success 200 {object} dto.HistoryResponse
// @Router /functions/liberacoes_history [post]
func (c *FunctionController) History(ctx *gin.Context) {
	var req dto.HistoryRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	entries, err := c.releaseService.History(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.HistoryResponse{Liberacoes: entries})
}

// CheckRelease warns about duplicate releases and lunch for non-scholarship students
// @Summary Warnings before releasing a meal
// @Tags Functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ReleaseCheckRequest true "Student"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Router /functions/verificar_liberacao [post]
func (c *FunctionController) CheckRelease(ctx *gin.Context) {
	var req dto.ReleaseCheckRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	check, err := c.releaseService.Check(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, check)
}

// Dashboard returns the home screen figures
// @Summary Dashboard figures
// @Tags Functions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object
// @Router /functions/dashboard_stats [post]
func (c *FunctionController) Dashboard(ctx *gin.Context) {
	stats, err := c.reportService.Dashboard(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// StockAlerts lists low-stock and expiring products
// @Summary Low stock and expiring products
// @Tags Functions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StockAlertsRequest false "Window in days"
// @Success 200 {object} object
// @Router /functions/estoque_alertas [post]
func (c *FunctionController) StockAlerts(ctx *gin.Context) {
	var req dto.StockAlertsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	alerts, err := c.reportService.Alerts(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, alerts)
}
