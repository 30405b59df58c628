package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"orderdesk/internal/models"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports request fields that failed validation, keyed by
// their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NewValidator returns a validator that reports JSON field names and knows
// the "deliverystatus" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("deliverystatus", func(fl validator.FieldLevel) bool {
		return models.DeliveryStatus(fl.Field().String()).Valid()
	})
	return v
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = describe(e)
	}
	return &ValidationError{Fields: fields}
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	case "deliverystatus":
		return fmt.Sprintf("must be one of %s", statusList())
	}
	return fmt.Sprintf("failed on the '%s' tag", e.Tag())
}

func statusList() string {
	names := make([]string, 0, len(models.DeliveryStatuses))
	for _, s := range models.DeliveryStatuses {
		names = append(names, fmt.Sprintf("%q", s))
	}
	return strings.Join(names, ", ")
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
