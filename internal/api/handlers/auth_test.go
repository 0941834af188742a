// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fr4nsys/agendo/internal/api/middleware"
	"github.com/fr4nsys/agendo/internal/models"
	apperrors "github.com/fr4nsys/agendo/internal/pkg/errors"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
	"github.com/fr4nsys/agendo/internal/services/auth"
)

const testJWTSecret = "test-secret-handlers"

type memAuthUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newMemAuthUsers() *memAuthUsers {
	return &memAuthUsers{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (s *memAuthUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return apperrors.AlreadyExists("user")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *memAuthUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

func (s *memAuthUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[email]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]string
}

func (r *memRevoker) BlacklistToken(_ context.Context, jti string, _ time.Time, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = make(map[string]string)
	}
	if reason == "" {
		reason = "revoked"
	}
	r.revoked[jti] = reason
	return nil
}

func (r *memRevoker) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

func (r *memRevoker) GetBlacklistReason(_ context.Context, jti string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[jti], nil
}

func authedRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(middleware.AuthorizationHeader, middleware.BearerPrefix+token)
	return req
}

func serveReq(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// newAuthRouter wires the auth handler behind the real JWT middleware,
// with token revocation checked against the in-memory revoker.
func newAuthRouter(t *testing.T) chi.Router {
	t.Helper()

	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig(testJWTSecret))
	svc := auth.NewService(newMemAuthUsers(), jwtSvc, &memRevoker{}, logger.Nop())

	authMW := middleware.Auth(middleware.AuthConfig{
		Secret: testJWTSecret,
		TokenValidator: func(ctx context.Context, _ string, claims *middleware.UserClaims) error {
			return svc.CheckTokenRevoked(ctx, claims.ID)
		},
	})

	h := NewAuthHandler(svc, logger.Nop())
	r := chi.NewRouter()
	r.Mount("/auth", h.Routes(authMW))
	return r
}

func TestAuthRegisterLoginMe(t *testing.T) {
	router := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", map[string]any{
		"email":    "Ada@Example.com",
		"name":     "Ada",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", rec.Code, rec.Body.String())
	}
	user := decodeBody[models.User](t, rec)
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", rec.Code, rec.Body.String())
	}
	login := decodeBody[LoginResponse](t, rec)
	if login.Token == "" {
		t.Fatal("login returned empty token")
	}
	if login.User == nil || login.User.ID != user.ID {
		t.Errorf("login user = %+v, want %s", login.User, user.ID)
	}

	req := authedRequest(http.MethodGet, "/auth/me", login.Token)
	rec = serveReq(router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d, body %s", rec.Code, rec.Body.String())
	}
	me := decodeBody[models.User](t, rec)
	if me.ID != user.ID {
		t.Errorf("me = %s, want %s", me.ID, user.ID)
	}
}

func TestAuthLogin_BadCredentials(t *testing.T) {
	router := newAuthRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/register", map[string]any{
		"email":    "ada@example.com",
		"name":     "Ada",
		"password": "hunter2hunter2",
	})

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ada@example.com", "wrong-password"},
		{"unknown email", "nobody@example.com", "hunter2hunter2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
				"email":    tc.email,
				"password": tc.password,
			})
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthLogout_RevokesToken(t *testing.T) {
	router := newAuthRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/register", map[string]any{
		"email":    "ada@example.com",
		"name":     "Ada",
		"password": "hunter2hunter2",
	})
	rec := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"email":    "ada@example.com",
		"password": "hunter2hunter2",
	})
	login := decodeBody[LoginResponse](t, rec)

	rec = serveReq(router, authedRequest(http.MethodPost, "/auth/logout", login.Token))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = serveReq(router, authedRequest(http.MethodGet, "/auth/me", login.Token))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMe_NoToken(t *testing.T) {
	router := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/auth/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}
