// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/fr4nsys/agendo/internal/api/errors"
	"github.com/fr4nsys/agendo/internal/models"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
)

// UserFinder looks up users for invite autocompletion.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Search(ctx context.Context, query string) ([]*models.UserSummary, error)
}

// UsersHandler handles user lookup endpoints.
type UsersHandler struct {
	BaseHandler
	users UserFinder
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users UserFinder, log *logger.Logger) *UsersHandler {
	return &UsersHandler{
		BaseHandler: NewBaseHandler(log),
		users:       users,
	}
}

// Routes returns the user routes. Mounted behind the auth middleware.
func (h *UsersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Lookup)
	return r
}

// Lookup handles GET /users?email= for an exact match and
// GET /users?q= for a substring search over email and name.
func (h *UsersHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if email := strings.TrimSpace(h.QueryParam(r, "email")); email != "" {
		user, err := h.users.GetByEmail(r.Context(), email)
		if err != nil {
			h.HandleError(w, err)
			return
		}
		h.OK(w, user.Summary())
		return
	}

	query := strings.TrimSpace(h.QueryParam(r, "q"))
	if query == "" {
		h.Error(w, apierrors.MissingField("email or q"))
		return
	}

	results, err := h.users.Search(r.Context(), query)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if results == nil {
		results = []*models.UserSummary{}
	}

	h.OK(w, results)
}
