// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package form defines the login and setup forms, decodes raw input into
// them and validates the result.
package form

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/toeirei/chatlocked/internal/i18n"
)

// LoginForm unlocks an existing vault.
type LoginForm struct {
	Password string `mapstructure:"password" validate:"required"`
}

// SetupForm creates the account stored in a new vault.
type SetupForm struct {
	Email    string `mapstructure:"email" validate:"required,email"`
	Password string `mapstructure:"password" validate:"required,min=8"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their input names instead of Go field names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Decode converts raw input values, keyed by field name, into T.
func Decode[T any](values map[string]any) (T, error) {
	var out T
	err := mapstructure.Decode(values, &out)
	return out, err
}

// FieldError is a single failed rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message returns the localized description of the failure.
func (e FieldError) Message() string {
	label := i18n.T("field." + e.Field)
	switch e.Tag {
	case "required":
		return i18n.T("form.required", label)
	case "email":
		return i18n.T("form.email", label)
	case "min":
		return i18n.T("form.min", label, e.Param)
	default:
		return i18n.T("form.invalid", label)
	}
}

// FieldErrors maps field names to their first failed rule.
type FieldErrors map[string]FieldError

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fe[f].Message())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks v against its validate tags. Rule failures are returned
// as FieldErrors.
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return out
}

// Parse decodes values into T and validates it.
func Parse[T any](values map[string]any) (T, error) {
	out, err := Decode[T](values)
	if err != nil {
		return out, err
	}
	return out, Validate(out)
}
