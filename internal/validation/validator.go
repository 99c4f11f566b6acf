// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// CodeValidation is the API error code for rejected requests.
const CodeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one rejected field. Field is the json or query name.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// RequestValidationError lists every rejected field of a request.
type RequestValidationError struct {
	Fields []FieldError
}

func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.Fields))
	for i := range ve.Fields {
		messages[i] = ve.Fields[i].Message
	}
	return strings.Join(messages, "; ")
}

// APIError is the VALIDATION_ERROR body. It mirrors api.APIError, which
// cannot be imported here without a cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError converts ve to a VALIDATION_ERROR body carrying every field.
func (ve *RequestValidationError) ToAPIError() *APIError {
	apiErr := &APIError{Code: CodeValidation, Message: "Validation failed"}
	if len(ve.Fields) > 0 {
		apiErr.Message = ve.Error()
		apiErr.Details = map[string]any{"fields": ve.Fields}
	}
	return apiErr
}

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("printable_text", printableText)
	})
	return validate
}

// ValidateStruct validates a request struct. It returns nil when every
// field passes.
func ValidateStruct(s any) *RequestValidationError {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Not a struct: a caller bug, reported rather than panicking.
		return &RequestValidationError{Fields: []FieldError{
			{Field: "request", Rule: "struct", Message: "request could not be validated"},
		}}
	}

	out := &RequestValidationError{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: message(fe),
		}
	}
	return out
}

// message renders the rules used by the request types.
func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "printable_text":
		return field + " must not contain control characters"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", field, bound, param)
		}
		return fmt.Sprintf("%s must be %s %s", field, bound, param)
	default:
		return field + " is invalid"
	}
}

// fieldName reports fields by their json name, falling back to the query
// parameter name, then the Go name.
func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "query"} {
		name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// printableText rejects strings containing non-printable runes.
func printableText(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
		return !unicode.IsPrint(r)
	}) < 0
}
