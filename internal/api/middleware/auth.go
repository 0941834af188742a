// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/fr4nsys/agendo/internal/api/errors"
)

// Context keys for auth middleware.
const (
	// UserContextKey is the context key for user claims.
	UserContextKey contextKey = "user"

	// TokenContextKey is the context key for the raw JWT token.
	TokenContextKey contextKey = "token"
)

// HTTP headers for auth.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

// UserClaims contains the claims extracted from a JWT token.
type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidatorFunc performs additional token validation beyond signature
// and expiry (e.g., checking the Redis revocation blacklist).
type TokenValidatorFunc func(ctx context.Context, token string, claims *UserClaims) error

// AuthConfig contains configuration for the auth middleware.
type AuthConfig struct {
	// Secret is the JWT signing secret (required)
	Secret string

	// AuthScheme is the authorization scheme in the header (default: "Bearer")
	AuthScheme string

	// ErrorHandler is called when authentication fails
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

	// TokenValidator is an optional function to perform additional token
	// validation (e.g., check if token is revoked).
	TokenValidator TokenValidatorFunc
}

// DefaultAuthConfig returns a default auth configuration.
// Tokens are only accepted from the Authorization header with Bearer prefix.
// Query parameter tokens are intentionally NOT supported as they appear in
// server logs, browser history, Referer headers, and proxy logs.
func DefaultAuthConfig(secret string) AuthConfig {
	return AuthConfig{
		Secret:       secret,
		AuthScheme:   "Bearer",
		ErrorHandler: defaultAuthErrorHandler,
	}
}

// Auth returns an authentication middleware that validates JWT tokens.
func Auth(config AuthConfig) func(http.Handler) http.Handler {
	if config.Secret == "" {
		panic("auth middleware: secret is required")
	}

	if config.AuthScheme == "" {
		config.AuthScheme = "Bearer"
	}

	if config.ErrorHandler == nil {
		config.ErrorHandler = defaultAuthErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r, config.AuthScheme)
			if tokenString == "" {
				config.ErrorHandler(w, r, apierrors.Unauthorized(""))
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(config.Secret), nil
			})

			if err != nil || !token.Valid {
				switch {
				case err != nil && strings.Contains(err.Error(), "expired"):
					config.ErrorHandler(w, r, apierrors.ExpiredToken())
				case err != nil:
					config.ErrorHandler(w, r, apierrors.InvalidToken(err.Error()))
				default:
					config.ErrorHandler(w, r, apierrors.InvalidToken(""))
				}
				return
			}

			claims, ok := token.Claims.(*UserClaims)
			if !ok {
				config.ErrorHandler(w, r, apierrors.InvalidToken("invalid claims"))
				return
			}

			// Optional: additional token validation (e.g., check revocation)
			if config.TokenValidator != nil {
				if err := config.TokenValidator(r.Context(), tokenString, claims); err != nil {
					config.ErrorHandler(w, r, apierrors.RevokedToken())
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			ctx = context.WithValue(ctx, TokenContextKey, tokenString)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthSimple returns a simplified auth middleware using defaults.
func AuthSimple(secret string) func(http.Handler) http.Handler {
	return Auth(DefaultAuthConfig(secret))
}

// extractBearerToken pulls the token out of the Authorization header.
// Requires the auth scheme prefix (e.g. "Bearer ") per RFC 6750; accepting
// tokens without a scheme prefix can cause token confusion with other auth
// schemes (Basic, Digest, etc.)
func extractBearerToken(r *http.Request, authScheme string) string {
	header := r.Header.Get(AuthorizationHeader)
	if header == "" {
		return ""
	}

	prefix := authScheme + " "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return ""
}

func defaultAuthErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())
	if apiErr, ok := err.(*apierrors.APIError); ok {
		apierrors.WriteErrorWithRequestID(w, apiErr, requestID)
	} else {
		apierrors.WriteErrorWithRequestID(w, apierrors.Unauthorized(err.Error()), requestID)
	}
}

// GetUserFromContext retrieves user claims from the context.
// Returns nil if no user is found.
func GetUserFromContext(ctx context.Context) *UserClaims {
	if claims, ok := ctx.Value(UserContextKey).(*UserClaims); ok {
		return claims
	}
	return nil
}

// GetUserFromRequest is a convenience function to get user from http.Request.
func GetUserFromRequest(r *http.Request) *UserClaims {
	return GetUserFromContext(r.Context())
}

// GetTokenFromContext retrieves the raw JWT token from the context.
func GetTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(TokenContextKey).(string); ok {
		return token
	}
	return ""
}
