// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fr4nsys/agendo/internal/models"
	apperrors "github.com/fr4nsys/agendo/internal/pkg/errors"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
)

type fakeUserFinder struct {
	users []*models.User
}

func (f *fakeUserFinder) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (f *fakeUserFinder) Search(_ context.Context, query string) ([]*models.UserSummary, error) {
	var out []*models.UserSummary
	for _, u := range f.users {
		if strings.Contains(u.Email, query) || strings.Contains(u.Name, query) {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func newUsersRouter(finder *fakeUserFinder) chi.Router {
	h := NewUsersHandler(finder, logger.Nop())
	r := chi.NewRouter()
	r.Mount("/users", h.Routes())
	return r
}

func TestUsersLookup(t *testing.T) {
	finder := &fakeUserFinder{users: []*models.User{
		{Email: "ada@example.com", Name: "Ada"},
		{Email: "grace@example.com", Name: "Grace"},
	}}
	router := newUsersRouter(finder)

	t.Run("by email", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/users?email=ada@example.com", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		got := decodeBody[models.UserSummary](t, rec)
		if got.Email != "ada@example.com" {
			t.Errorf("email = %q", got.Email)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/users?email=nobody@example.com", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("substring search", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/users?q=grace", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		got := decodeBody[[]models.UserSummary](t, rec)
		if len(got) != 1 || got[0].Name != "Grace" {
			t.Errorf("results = %+v", got)
		}
	})

	t.Run("no match returns empty list", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/users?q=zzz", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("body = %q, want empty JSON array", body)
		}
	})

	t.Run("missing params", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/users", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}
