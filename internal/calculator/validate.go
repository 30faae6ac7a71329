package calculator

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/alejandrodnm/profitcalc/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ValidationError lista los campos rechazados por nombre JSON.
// Hace match con domain.ErrInvalidRecord vía errors.Is.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", domain.ErrInvalidRecord, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidRecord }

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func formatValidationErrors(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		fields := map[string]string{}
		for _, fe := range errs {
			fields[fe.Field()] = validationMessage(fe)
		}
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("%w: %w", domain.ErrInvalidRecord, err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email", "email|eq=anonymous":
		return "must be a valid email"
	}
	return "is invalid"
}
