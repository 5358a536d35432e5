package middleware

import (
	"errors"
	"net/http"

	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/cantinaverde/cantina/internal/pkg/dberrors"
	"github.com/cantinaverde/cantina/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Checked in order; the first match wins
var errorMappings = []errorMapping{
	{apperrors.ErrTableNotAllowed, http.StatusNotFound, dto.ErrorCodeTableNotFound, "Table not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenMissing, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Authentication required"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrEmptyPayload, http.StatusBadRequest, dto.ErrorCodeEmptyPayload, "Request body is empty"},
	{apperrors.ErrUnknownColumn, http.StatusBadRequest, dto.ErrorCodeUnknownColumn, "Unknown column"},
	{apperrors.ErrInvalidFilter, http.StatusBadRequest, dto.ErrorCodeInvalidFilter, "Invalid filter"},
	{apperrors.ErrMissingStockFields, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Missing required fields"},
	{apperrors.ErrInvalidMovement, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Invalid movement type"},
	{apperrors.ErrInvalidQuantity, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Invalid quantity"},
	{apperrors.ErrMissingCode, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Code is required"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
}

// HandleAPIError handles common API errors and returns appropriate responses.
// Unrecognized errors are logged and answered with a generic 500.
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		detail := dto.NewErrorDetail(m.code, apperrors.Message(err, m.message))
		var ce *apperrors.CustomError
		if errors.As(err, &ce) && ce.Field != "" {
			detail = detail.WithField(ce.Field)
		}
		if m.status < http.StatusInternalServerError {
			detail = detail.WithSeverity(dto.ErrorSeverityWarning)
		}
		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	code := dto.ErrorCodeInternalServer
	kind := dberrors.Kind(err)
	if kind != "" {
		code = dto.ErrorCodeDatabaseError
	}
	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("pgKind", kind).
		Msg("Request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.NewErrorDetail(code, "Internal server error")))
}

// RespondBadRequest answers 400 for a body that could not be decoded
func RespondBadRequest(c *gin.Context, details string) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format").
		WithDetails(details).
		WithSeverity(dto.ErrorSeverityWarning)
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
