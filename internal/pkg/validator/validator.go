// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

// Package validator wraps go-playground/validator for request validation.
package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *playground.Validate
)

// Validator validates structs using `validate` tags.
type Validator struct {
	v *playground.Validate
}

// New returns a Validator backed by a shared underlying instance.
func New() *Validator {
	once.Do(func() {
		instance = playground.New()

		// Report field names from json tags so API error messages match
		// the wire format rather than Go struct fields.
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return &Validator{v: instance}
}

// Validate validates a struct against its `validate` tags.
func (val *Validator) Validate(v any) error {
	return val.v.Struct(v)
}

// Validate validates a struct using the shared package-level validator.
func Validate(v any) error {
	return New().Validate(v)
}

// GetValidationErrors converts a validation error into a field -> message map.
// Returns nil if err is not a validator error.
func GetValidationErrors(err error) map[string]string {
	verrs, ok := err.(playground.ValidationErrors)
	if !ok {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = messageFor(fe)
	}
	return fields
}

func messageFor(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "hexcolor":
		return "must be a hex color code"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
