package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cantinaverde/cantina/internal/app/models"
	"github.com/cantinaverde/cantina/internal/app/models/dto"
	"github.com/cantinaverde/cantina/internal/app/repositories"
	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// Code lengths printed on student cards
const (
	matriculaLength   = 12
	numeroPastaLength = 4
)

// NoClassName is shown for students without a class
const NoClassName = "Sem turma"

// StudentService resolves scanned or typed codes to students
type StudentService struct {
	store  StudentStore
	logger zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(store StudentStore, logger zerolog.Logger) *StudentService {
	return &StudentService{store: store, logger: logger}
}

// Lookup finds the student identified by a 12-digit matricula or a 4-digit
// folder number. Codes of any other length match nothing.
func (s *StudentService) Lookup(ctx context.Context, req dto.StudentLookupRequest) (*models.StudentLookup, error) {
	raw := req.Codigo
	if isBlankCode(raw) {
		raw = req.Query
	}
	if isBlankCode(raw) {
		return nil, apperrors.NewCustomError(apperrors.ErrMissingCode, "codigo is required").WithField("codigo")
	}

	code := strings.TrimSpace(codeString(raw))
	var column string
	switch len(code) {
	case matriculaLength:
		column = repositories.ColumnMatricula
	case numeroPastaLength:
		column = repositories.ColumnNumeroPasta
	default:
		s.logger.Debug().Str("codigo", code).Msg("Lookup code has no known length")
		return nil, nil
	}

	student, err := s.store.FindByCode(ctx, column, code)
	if err != nil {
		return nil, err
	}
	if student != nil && student.TurmaNome == "" {
		student.TurmaNome = NoClassName
	}
	return student, nil
}

func isBlankCode(v interface{}) bool {
	switch c := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(c) == ""
	}
	return false
}

// codeString renders JSON numbers without exponent or trailing zeros
func codeString(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
