// RetailScope - Retail Transaction Analytics and Segmentation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/retailscope/internal/dataset"
)

// ErrorCode is the API error code for every validation failure.
const ErrorCode = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ClientPredictRequest is the body of a client revenue prediction.
type ClientPredictRequest struct {
	ClientID string `json:"client_id" validate:"required,max=64,clientid"`
}

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error implements error.
func (e FieldError) Error() string { return e.Message }

// RequestError collects the field errors of one request.
type RequestError struct {
	Fields []FieldError
}

// Error joins the field messages.
func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Details returns the error details for the API envelope.
func (e *RequestError) Details() map[string]any {
	if len(e.Fields) == 1 {
		f := e.Fields[0]
		return map[string]any{"field": f.Field, "tag": f.Tag}
	}
	return map[string]any{"fields": e.Fields}
}

// Get returns the shared validator. Struct metadata is cached across calls.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so messages match the request body.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("clientid", validClientID)
		_ = validate.RegisterValidation("finite", validFinite)
	})
	return validate
}

// validClientID accepts ids that are non-empty after normalization and carry
// no inner whitespace.
func validClientID(fl validator.FieldLevel) bool {
	id := dataset.NormalizeID(fl.Field().String())
	return id != "" && !strings.ContainsAny(id, " \t\r\n")
}

func validFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		v := f.Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	default:
		return true
	}
}

// Struct validates s. It returns nil or a *RequestError.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{Fields: []FieldError{{Field: "body", Tag: "invalid", Message: err.Error()}}}
	}

	out := &RequestError{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return out
}

var plainMessages = map[string]string{
	"required": "%s is required",
	"clientid": "%s must be a client id",
	"finite":   "%s must be a finite number",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func message(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tmpl, ok := plainMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := paramMessages[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
