package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/cantinaverde/cantina/internal/pkg/apperrors"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Enrollment number printed on student cards
	MatriculaPattern = `^\d{12}$`

	// Folder number, the last four digits of the matricula by default
	NumeroPastaPattern = `^\d{4}$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Matricula   *regexp.Regexp
	NumeroPasta *regexp.Regexp
}{
	Matricula:   regexp.MustCompile(MatriculaPattern),
	NumeroPasta: regexp.MustCompile(NumeroPastaPattern),
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("matricula", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.Matricula.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("numero_pasta", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.NumeroPasta.MatchString(fl.Field().String())
	})
	return v
}

// jsonFieldName reports fields under their wire name
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Struct validates s against its `validate` tags. The first failure is
// returned as a validation error naming the offending field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, FormatFieldError(fe)).WithField(fe.Field())
	}
	return apperrors.NewCustomError(apperrors.ErrValidationFailed, err.Error())
}

// Var validates a single value against tag
func Var(field string, value interface{}, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		var fieldErrs validator.ValidationErrors
		msg := field + " is invalid"
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			msg = formatTag(field, fieldErrs[0].Tag(), fieldErrs[0].Param())
		}
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, msg).WithField(field)
	}
	return nil
}

// FormatFieldError creates a human-readable validation error message
func FormatFieldError(e validator.FieldError) string {
	return formatTag(e.Field(), e.Tag(), e.Param())
}

func formatTag(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + param
	case "max":
		return field + " must be at most " + param
	case "email":
		return field + " must be a valid email address"
	case "uuid":
		return field + " must be a UUID"
	case "oneof":
		return field + " must be one of: " + param
	case "matricula":
		return field + " must have 12 digits"
	case "numero_pasta":
		return field + " must have 4 digits"
	default:
		return fmt.Sprintf("%s validation failed: %s", field, tag)
	}
}
