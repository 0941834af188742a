// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package validator

import (
	"testing"
)

type testStruct struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

func TestNew_Singleton(t *testing.T) {
	v1 := New()
	v2 := New()
	if v1.v != v2.v {
		t.Error("New() should return Validators sharing the same underlying instance")
	}
}

func TestValidate_ValidStruct(t *testing.T) {
	s := testStruct{Title: "Team sync", Email: "ana@example.com", Color: "#3788d8"}
	if err := Validate(s); err != nil {
		t.Errorf("Validate() should pass for valid struct, got: %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	if err := Validate(testStruct{}); err == nil {
		t.Error("Validate() should fail for empty required fields")
	}
}

func TestValidate_BadColor(t *testing.T) {
	s := testStruct{Title: "T", Email: "a@b.com", Color: "neon"}
	if err := Validate(s); err == nil {
		t.Error("Validate() should fail for non-hex color")
	}
}

func TestGetValidationErrors_UsesJSONNames(t *testing.T) {
	err := Validate(testStruct{Email: "not-an-email"})
	fields := GetValidationErrors(err)
	if fields == nil {
		t.Fatal("GetValidationErrors() returned nil for validator error")
	}
	if _, ok := fields["title"]; !ok {
		t.Errorf("expected field key 'title' from json tag, got: %v", fields)
	}
	if msg := fields["email"]; msg != "must be a valid email address" {
		t.Errorf("email message = %q", msg)
	}
}

func TestGetValidationErrors_NonValidatorError(t *testing.T) {
	if fields := GetValidationErrors(errPlain{}); fields != nil {
		t.Errorf("expected nil for non-validator error, got: %v", fields)
	}
}

type errPlain struct{}

func (errPlain) Error() string { return "plain" }
