// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fr4nsys/agendo/internal/models"
	apperrors "github.com/fr4nsys/agendo/internal/pkg/errors"
)

// InviteRepository handles event invite database operations.
type InviteRepository struct {
	db *DB
}

// NewInviteRepository creates a new invite repository.
func NewInviteRepository(db *DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Upsert creates an invite or refreshes an existing one for the same
// (event, user) pair. A re-invite always resets the status to PENDING and
// takes the new can_edit value.
func (r *InviteRepository) Upsert(ctx context.Context, invite *models.EventInvite) error {
	now := time.Now().UTC()
	invite.Status = models.InviteStatusPending
	invite.CreatedAt = now
	invite.UpdatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO event_invites (event_id, user_id, status, can_edit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, user_id) DO UPDATE SET
			status = EXCLUDED.status,
			can_edit = EXCLUDED.can_edit,
			updated_at = EXCLUDED.updated_at`,
		invite.EventID, invite.UserID, invite.Status, invite.CanEdit,
		invite.CreatedAt, invite.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyError(err) {
			return apperrors.NotFound("event or user")
		}
		return fmt.Errorf("upsert invite: %w", err)
	}
	return nil
}

// UpsertBatch refreshes invites for several users inside one transaction,
// so a batch invite either lands fully or not at all.
func (r *InviteRepository) UpsertBatch(ctx context.Context, eventID uuid.UUID, userIDs []uuid.UUID, canEdit bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin invite batch: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, userID := range userIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO event_invites (event_id, user_id, status, can_edit, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (event_id, user_id) DO UPDATE SET
				status = EXCLUDED.status,
				can_edit = EXCLUDED.can_edit,
				updated_at = EXCLUDED.updated_at`,
			eventID, userID, models.InviteStatusPending, canEdit, now, now,
		)
		if err != nil {
			if IsForeignKeyError(err) {
				return apperrors.NotFound("event or user")
			}
			return fmt.Errorf("upsert invite: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Get retrieves the invite for an (event, user) pair.
func (r *InviteRepository) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.EventInvite, error) {
	invite := &models.EventInvite{}
	err := r.db.QueryRow(ctx, `
		SELECT event_id, user_id, status, can_edit, created_at, updated_at
		FROM event_invites
		WHERE event_id = $1 AND user_id = $2`, eventID, userID).
		Scan(&invite.EventID, &invite.UserID, &invite.Status, &invite.CanEdit,
			&invite.CreatedAt, &invite.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("invite")
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return invite, nil
}

// UpdateStatus records the invited user's response.
func (r *InviteRepository) UpdateStatus(ctx context.Context, eventID, userID uuid.UUID, status models.InviteStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE event_invites SET status = $3, updated_at = $4
		WHERE event_id = $1 AND user_id = $2`,
		eventID, userID, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update invite status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("invite")
	}
	return nil
}

// Delete removes an invite.
func (r *InviteRepository) Delete(ctx context.Context, eventID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM event_invites WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("invite")
	}
	return nil
}

// ListPendingForUser returns the user's PENDING invites with the event and
// its owner attached, newest first.
func (r *InviteRepository) ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]*models.EventInvite, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.event_id, i.user_id, i.status, i.can_edit, i.created_at, i.updated_at,
			e.id, e.user_id, e.title, e.description, e.start_date, e.end_date,
			e.location, e.color, e.is_recurring, e.recurrence_rule, e.recurrence_end_date,
			e.reminders, e.created_at, e.updated_at,
			u.id, u.email, u.name
		FROM event_invites i
		JOIN events e ON e.id = i.event_id
		JOIN users u ON u.id = e.user_id
		WHERE i.user_id = $1 AND i.status = $2
		ORDER BY i.created_at DESC`, userID, models.InviteStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.EventInvite
	for rows.Next() {
		invite := &models.EventInvite{Event: &models.Event{User: &models.UserSummary{}}}
		e := invite.Event
		err := rows.Scan(
			&invite.EventID, &invite.UserID, &invite.Status, &invite.CanEdit,
			&invite.CreatedAt, &invite.UpdatedAt,
			&e.ID, &e.UserID, &e.Title, &e.Description, &e.StartDate, &e.EndDate,
			&e.Location, &e.Color, &e.IsRecurring, &e.RecurrenceRule, &e.RecurrenceEndDate,
			&e.Reminders, &e.CreatedAt, &e.UpdatedAt,
			&e.User.ID, &e.User.Email, &e.User.Name,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending invite: %w", err)
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}
