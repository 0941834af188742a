// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fr4nsys/agendo/internal/api/middleware"
	"github.com/fr4nsys/agendo/internal/models"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
	"github.com/fr4nsys/agendo/internal/services/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	BaseHandler
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *auth.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(log),
		authService: authService,
	}
}

// Routes returns the authentication routes. authMW guards the session
// endpoints; register and login stay public.
func (h *AuthHandler) Routes(authMW func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMW)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.GetCurrentUser)
	})

	return r
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := h.ParseJSON(r, &input); err != nil {
		h.HandleError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

// Logout handles POST /auth/logout. The presented token is revoked until
// its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenFromContext(r.Context())
	if err := h.authService.Logout(r.Context(), token); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// GetCurrentUser handles GET /auth/me.
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, user)
}
