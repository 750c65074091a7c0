// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

package form

import (
	"errors"
	"strings"
	"testing"

	"github.com/toeirei/chatlocked/internal/i18n"
)

func TestLoginForm(t *testing.T) {
	if err := Validate(LoginForm{Password: "x"}); err != nil {
		t.Fatalf("short password must be accepted for login: %v", err)
	}

	err := Validate(LoginForm{})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T %v", err, err)
	}
	if fe["password"].Tag != "required" {
		t.Fatalf("expected required on password, got %+v", fe)
	}
}

func TestSetupForm(t *testing.T) {
	i18n.Init("en")

	if err := Validate(SetupForm{Email: "a@b.com", Password: "12345678"}); err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	err := Validate(SetupForm{Email: "not-an-email", Password: "short"})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %T %v", err, err)
	}
	if fe["email"].Tag != "email" {
		t.Fatalf("expected email rule on email, got %+v", fe["email"])
	}
	if fe["password"].Tag != "min" || fe["password"].Param != "8" {
		t.Fatalf("expected min=8 on password, got %+v", fe["password"])
	}
	want := "Email must be a valid email address; Password must be at least 8 characters long"
	if fe.Error() != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", fe.Error(), want)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse[SetupForm](map[string]any{"email": "a@b.com", "password": "hunter22"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Email != "a@b.com" || got.Password != "hunter22" {
		t.Fatalf("unexpected decode %+v", got)
	}

	_, err = Parse[LoginForm](map[string]any{"password": ""})
	if err == nil || !strings.Contains(err.Error(), "Password") {
		t.Fatalf("expected required error, got %v", err)
	}

	if _, err := Decode[LoginForm](map[string]any{"password": 42}); err == nil {
		t.Fatalf("expected decode error for non-string password")
	}
}
