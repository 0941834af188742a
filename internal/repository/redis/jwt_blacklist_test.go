// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

// newTestClient starts an in-memory miniredis server and returns a Client
// connected to it. The server is closed when the test finishes.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return &Client{rdb: rdb}
}

func TestBlacklistToken(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-abc-123"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(10*time.Minute), "logout"); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	blacklisted, err := bl.IsBlacklisted(ctx, jti)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if !blacklisted {
		t.Fatal("expected token to be blacklisted")
	}
}

func TestBlacklistToken_DefaultReason(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-no-reason"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(5*time.Minute), ""); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	reason, err := bl.GetBlacklistReason(ctx, jti)
	if err != nil {
		t.Fatalf("GetBlacklistReason: %v", err)
	}
	if reason != "revoked" {
		t.Fatalf("expected reason 'revoked', got %q", reason)
	}
}

func TestBlacklistToken_AlreadyExpired(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)
	ctx := context.Background()

	jti := "token-expired"
	if err := bl.BlacklistToken(ctx, jti, time.Now().Add(-1*time.Minute), "logout"); err != nil {
		t.Fatalf("BlacklistToken: %v", err)
	}

	// Should not be stored because the token is already expired
	blacklisted, err := bl.IsBlacklisted(ctx, jti)
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("expired token should not be stored in blacklist")
	}
}

func TestIsBlacklisted_NotBlacklisted(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)

	blacklisted, err := bl.IsBlacklisted(context.Background(), "nonexistent-jti")
	if err != nil {
		t.Fatalf("IsBlacklisted: %v", err)
	}
	if blacklisted {
		t.Fatal("expected non-existent token to not be blacklisted")
	}
}

func TestGetBlacklistReason_NotBlacklisted(t *testing.T) {
	client := newTestClient(t)
	bl := NewJWTBlacklist(client)

	reason, err := bl.GetBlacklistReason(context.Background(), "missing-jti")
	if err != nil {
		t.Fatalf("GetBlacklistReason: %v", err)
	}
	if reason != "" {
		t.Fatalf("expected empty reason, got %q", reason)
	}
}
