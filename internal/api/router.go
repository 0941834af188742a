// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package api

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fr4nsys/agendo/internal/api/handlers"
	"github.com/fr4nsys/agendo/internal/api/middleware"
)

// RouterConfig contains configuration for setting up routes.
type RouterConfig struct {
	// JWTSecret is the secret for JWT token validation.
	JWTSecret string

	// CORSConfig is the CORS configuration.
	CORSConfig middleware.CORSConfig

	// RequestTimeout is the timeout for API requests.
	RequestTimeout time.Duration

	// TokenValidator checks tokens against the revocation blacklist.
	TokenValidator middleware.TokenValidatorFunc

	// Logger for request logging.
	Logger middleware.RequestLogger

	// EnableDebugLogging enables verbose request logging.
	EnableDebugLogging bool
}

// DefaultRouterConfig returns a default router configuration.
func DefaultRouterConfig(jwtSecret string) RouterConfig {
	return RouterConfig{
		JWTSecret:      jwtSecret,
		CORSConfig:     middleware.DefaultCORSConfig(),
		RequestTimeout: 30 * time.Second,
	}
}

// Handlers contains all API handlers. Nil fields are not mounted.
type Handlers struct {
	System *handlers.SystemHandler
	Auth   *handlers.AuthHandler
	Events *handlers.EventsHandler
	Users  *handlers.UsersHandler
}

// NewRouter creates a chi router with all routes configured.
func NewRouter(config RouterConfig, h *Handlers) chi.Router {
	r := chi.NewRouter()

	// Request ID must come first so every later log line carries it.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	if config.Logger != nil {
		if config.EnableDebugLogging {
			r.Use(middleware.DebugLogging(config.Logger))
		} else {
			r.Use(middleware.SimpleLogging(config.Logger))
		}
	}

	r.Use(middleware.Recovery(middleware.RecoveryConfig{
		Logger:       config.Logger,
		IncludeStack: true,
	}))

	r.Use(middleware.CORS(config.CORSConfig))

	// Health checks stay outside /api/v1 and outside auth.
	if h.System != nil {
		r.Get("/health", h.System.Health)
		r.Get("/healthz", h.System.Liveness)
		r.Get("/ready", h.System.Readiness)
	}

	authMW := middleware.Auth(middleware.AuthConfig{
		Secret:         config.JWTSecret,
		TokenValidator: config.TokenValidator,
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.RequestTimeout))

		if h.System != nil {
			r.Mount("/system", h.System.Routes())
		}

		// Login and register get the tighter per-IP limit; the auth
		// handler guards its session endpoints with authMW itself.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthRateLimit())

			if h.Auth != nil {
				r.Mount("/auth", h.Auth.Routes(authMW))
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Use(middleware.APIRateLimit())

			if h.Events != nil {
				r.Mount("/events", h.Events.Routes())
			}
			if h.Users != nil {
				r.Mount("/users", h.Users.Routes())
			}
		})
	})

	return r
}

// RevocationValidator adapts a jti-based revocation check to the auth
// middleware's token validator hook.
func RevocationValidator(check func(ctx context.Context, jti string) error) middleware.TokenValidatorFunc {
	return func(ctx context.Context, _ string, claims *middleware.UserClaims) error {
		return check(ctx, claims.ID)
	}
}
