// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JWTBlacklist stores revoked token IDs until their natural expiry. Logout
// revokes the session token; auth middleware consults the blacklist before
// accepting a token.
type JWTBlacklist struct {
	client *Client
}

// NewJWTBlacklist creates a blacklist backed by the given Redis client.
func NewJWTBlacklist(client *Client) *JWTBlacklist {
	return &JWTBlacklist{client: client}
}

func (b *JWTBlacklist) key(jti string) string {
	return b.client.WithPrefix("jwt_blacklist", jti)
}

// BlacklistToken marks a token as revoked until expiresAt. Tokens that have
// already expired are not stored: they can never validate anyway.
func (b *JWTBlacklist) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time, reason string) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if reason == "" {
		reason = "revoked"
	}

	if err := b.client.rdb.Set(ctx, b.key(jti), reason, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether a token ID has been revoked.
func (b *JWTBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.rdb.Exists(ctx, b.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

// GetBlacklistReason returns the revocation reason, or "" if the token is
// not blacklisted.
func (b *JWTBlacklist) GetBlacklistReason(ctx context.Context, jti string) (string, error) {
	reason, err := b.client.rdb.Get(ctx, b.key(jti)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get blacklist reason: %w", err)
	}
	return reason, nil
}
