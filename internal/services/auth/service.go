// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fr4nsys/agendo/internal/models"
	"github.com/fr4nsys/agendo/internal/pkg/crypto"
	apperrors "github.com/fr4nsys/agendo/internal/pkg/errors"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
)

// UserStore is the user persistence interface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenRevoker marks issued tokens as revoked until their expiry.
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, expiresAt time.Time, reason string) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	GetBlacklistReason(ctx context.Context, jti string) (string, error)
}

// Service implements registration, login and session management.
type Service struct {
	users   UserStore
	jwt     *JWTService
	revoker TokenRevoker
	log     *logger.Logger
}

// NewService creates the auth service. revoker may be nil, in which case
// logout is best-effort and tokens simply age out.
func NewService(users UserStore, jwtSvc *JWTService, revoker TokenRevoker, log *logger.Logger) *Service {
	return &Service{
		users:   users,
		jwt:     jwtSvc,
		revoker: revoker,
		log:     log.Named("auth"),
	}
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infow("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login verifies credentials and issues a session token. The same error is
// returned for unknown email and wrong password so login cannot be used to
// probe for accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if !crypto.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, expiresAt, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Infow("user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	if s.revoker == nil {
		return nil
	}

	claims, err := s.jwt.ValidateToken(tokenString)
	if err != nil {
		// Expired or garbage tokens need no revocation.
		return nil
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revoker.BlacklistToken(ctx, claims.ID, expiresAt, "logout"); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	s.log.Infow("user logged out", "user_id", claims.UserID)
	return nil
}

// GetUser returns the account for an authenticated user ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// CheckTokenRevoked returns an error if the token ID has been revoked.
// Used by the auth middleware's TokenValidator hook.
func (s *Service) CheckTokenRevoked(ctx context.Context, jti string) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	revoked, err := s.revoker.IsBlacklisted(ctx, jti)
	if err != nil {
		return fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		reason, rerr := s.revoker.GetBlacklistReason(ctx, jti)
		if rerr != nil || reason == "" {
			reason = "revoked"
		}
		s.log.Debugw("rejected revoked token", "jti", jti, "reason", reason)
		return apperrors.Unauthorized("token revoked")
	}
	return nil
}
