// Package validation wraps go-playground/validator for checkout payloads.
// Both the SDK client (pre-flight, before any network call) and the
// storefront emulator (inbound requests) validate with it, so the two sides
// agree on what a well-formed checkout looks like.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error carries per-field validation failures keyed by the field's JSON
// name, matching the storefront API's error envelope shape.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString(" ")
		b.WriteString(e.Fields[name])
	}
	return b.String()
}

// Validator validates structs using their validate tags.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			return name[:i]
		}
		return name
	})

	return &Validator{v: v}
}

// Validate checks a struct and returns an *Error describing every failing
// field, or nil when the value is valid.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must have at least " + e.Param() + " entries"
	case "max":
		return "must have at most " + e.Param() + " entries"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
