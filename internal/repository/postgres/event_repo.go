// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fr4nsys/agendo/internal/models"
	apperrors "github.com/fr4nsys/agendo/internal/pkg/errors"
)

// EventRepository handles event database operations.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `e.id, e.user_id, e.title, e.description, e.start_date, e.end_date,
	e.location, e.color, e.is_recurring, e.recurrence_rule, e.recurrence_end_date,
	e.reminders, e.created_at, e.updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.Title,
		&event.Description,
		&event.StartDate,
		&event.EndDate,
		&event.Location,
		&event.Color,
		&event.IsRecurring,
		&event.RecurrenceRule,
		&event.RecurrenceEndDate,
		&event.Reminders,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Color == "" {
		event.Color = models.DefaultEventColor
	}
	if event.Reminders == nil {
		event.Reminders = []int32{}
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO events (id, user_id, title, description, start_date, end_date,
			location, color, is_recurring, recurrence_rule, recurrence_end_date,
			reminders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		event.ID, event.UserID, event.Title, event.Description,
		event.StartDate, event.EndDate, event.Location, event.Color,
		event.IsRecurring, event.RecurrenceRule, event.RecurrenceEndDate,
		event.Reminders, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyError(err) {
			return apperrors.NotFound("user")
		}
		if IsCheckViolationError(err) {
			return apperrors.InvalidInput("end_date must be after start_date")
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event with its owner summary and invites.
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("event")
		}
		return nil, fmt.Errorf("get event by id: %w", err)
	}

	if err := r.attachRelations(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ListForUser returns every event the user owns or is invited to. When from
// and to are non-zero the result is restricted to events overlapping the
// window; recurring templates are always included so expansion can decide.
func (r *EventRepository) ListForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.Event, error) {
	query := `
		SELECT DISTINCT ` + eventColumns + `
		FROM events e
		LEFT JOIN event_invites i ON i.event_id = e.id AND i.user_id = $1
		WHERE (e.user_id = $1 OR i.user_id IS NOT NULL)`
	args := []any{userID}

	if !from.IsZero() && !to.IsZero() {
		query += ` AND (e.is_recurring OR (e.end_date >= $2 AND e.start_date <= $3))`
		args = append(args, from, to)
	}
	query += ` ORDER BY e.start_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, event := range events {
		if err := r.attachRelations(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// ListWithReminders returns events that carry reminder offsets and could
// produce an occurrence inside the window. Recurring templates are always
// included; the caller expands them and decides which occurrences fall in.
func (r *EventRepository) ListWithReminders(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE cardinality(e.reminders) > 0
		  AND (e.is_recurring OR (e.end_date >= $1 AND e.start_date <= $2))
		ORDER BY e.start_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events with reminders: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Update applies a partial update. Only non-nil fields change.
func (r *EventRepository) Update(ctx context.Context, id uuid.UUID, update *models.EventUpdate) error {
	sets := []string{}
	args := []any{}
	n := 0

	add := func(column string, value any) {
		n++
		sets = append(sets, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.StartDate != nil {
		add("start_date", *update.StartDate)
	}
	if update.EndDate != nil {
		add("end_date", *update.EndDate)
	}
	if update.Location != nil {
		add("location", *update.Location)
	}
	if update.Color != nil {
		add("color", *update.Color)
	}
	if update.IsRecurring != nil {
		add("is_recurring", *update.IsRecurring)
	}
	if update.RecurrenceRule != nil {
		add("recurrence_rule", *update.RecurrenceRule)
	}
	if update.RecurrenceEndDate != nil {
		add("recurrence_end_date", *update.RecurrenceEndDate)
	}
	if update.Reminders != nil {
		add("reminders", *update.Reminders)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())

	n++
	args = append(args, id)
	query := fmt.Sprintf("UPDATE events SET %s WHERE id = $%d", strings.Join(sets, ", "), n)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if IsCheckViolationError(err) {
			return apperrors.InvalidInput("end_date must be after start_date")
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("event")
	}
	return nil
}

// Delete removes an event. Invites go with it via the foreign key cascade.
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("event")
	}
	return nil
}

func (r *EventRepository) attachRelations(ctx context.Context, event *models.Event) error {
	owner := &models.UserSummary{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name FROM users WHERE id = $1`, event.UserID).
		Scan(&owner.ID, &owner.Email, &owner.Name)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("get event owner: %w", err)
	}
	if err == nil {
		event.User = owner
	}

	rows, err := r.db.Query(ctx, `
		SELECT i.event_id, i.user_id, i.status, i.can_edit, i.created_at, i.updated_at,
			u.id, u.email, u.name
		FROM event_invites i
		JOIN users u ON u.id = i.user_id
		WHERE i.event_id = $1
		ORDER BY i.created_at`, event.ID)
	if err != nil {
		return fmt.Errorf("get event invites: %w", err)
	}
	defer rows.Close()

	event.Invites = []*models.EventInvite{}
	for rows.Next() {
		invite := &models.EventInvite{User: &models.UserSummary{}}
		err := rows.Scan(
			&invite.EventID, &invite.UserID, &invite.Status, &invite.CanEdit,
			&invite.CreatedAt, &invite.UpdatedAt,
			&invite.User.ID, &invite.User.Email, &invite.User.Name,
		)
		if err != nil {
			return fmt.Errorf("scan invite: %w", err)
		}
		event.Invites = append(event.Invites, invite)
	}
	return rows.Err()
}
