// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

// Package event implements calendar event management: CRUD with per-user
// access control, the invitation lifecycle, and read-time expansion of
// recurring events into dated occurrences.
package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fr4nsys/agendo/internal/models"
	apperrors "github.com/fr4nsys/agendo/internal/pkg/errors"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
	"github.com/fr4nsys/agendo/internal/pkg/recurrence"
)

// EventStore is the event persistence interface.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.Event, error)
	Update(ctx context.Context, id uuid.UUID, update *models.EventUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InviteStore is the invite persistence interface.
type InviteStore interface {
	Upsert(ctx context.Context, invite *models.EventInvite) error
	UpsertBatch(ctx context.Context, eventID uuid.UUID, userIDs []uuid.UUID, canEdit bool) error
	Get(ctx context.Context, eventID, userID uuid.UUID) (*models.EventInvite, error)
	UpdateStatus(ctx context.Context, eventID, userID uuid.UUID, status models.InviteStatus) error
	Delete(ctx context.Context, eventID, userID uuid.UUID) error
	ListPendingForUser(ctx context.Context, userID uuid.UUID) ([]*models.EventInvite, error)
}

// UserStore resolves invitees.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmails(ctx context.Context, emails []string) (map[string]*models.User, error)
}

// Service implements event operations.
type Service struct {
	events  EventStore
	invites InviteStore
	users   UserStore
	log     *logger.Logger
}

// NewService creates the event service.
func NewService(events EventStore, invites InviteStore, users UserStore, log *logger.Logger) *Service {
	return &Service{
		events:  events,
		invites: invites,
		users:   users,
		log:     log.Named("event"),
	}
}

// CreateInput is the payload for creating an event.
type CreateInput struct {
	Title             string     `json:"title" validate:"required,min=1,max=200"`
	Description       string     `json:"description" validate:"max=2000"`
	StartDate         time.Time  `json:"start_date" validate:"required"`
	EndDate           time.Time  `json:"end_date" validate:"required"`
	Location          string     `json:"location" validate:"max=500"`
	Color             string     `json:"color" validate:"omitempty,hexcolor"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrenceRule    string     `json:"recurrence_rule"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date"`
	Reminders         []int32    `json:"reminders" validate:"omitempty,dive,gte=0"`
}

// Create validates and stores a new event. A recurring event's rule is
// parse-checked here: bad rules are rejected at write time so the read
// path's lenient fallback stays an exception, not the norm.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Event, error) {
	if !input.EndDate.After(input.StartDate) {
		return nil, apperrors.NewValidationError("end_date must be after start_date")
	}

	if input.IsRecurring {
		if input.RecurrenceRule == "" {
			return nil, apperrors.NewValidationError("recurrence_rule is required for recurring events")
		}
		if _, err := recurrence.Parse(input.RecurrenceRule); err != nil {
			return nil, apperrors.NewValidationError("invalid recurrence_rule: " + err.Error())
		}
	}

	ev := &models.Event{
		UserID:            userID,
		Title:             input.Title,
		Description:       input.Description,
		StartDate:         input.StartDate.UTC(),
		EndDate:           input.EndDate.UTC(),
		Location:          input.Location,
		Color:             input.Color,
		IsRecurring:       input.IsRecurring,
		RecurrenceRule:    input.RecurrenceRule,
		RecurrenceEndDate: input.RecurrenceEndDate,
		Reminders:         input.Reminders,
	}

	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}

	s.log.Infow("event created", "event_id", ev.ID, "user_id", userID, "recurring", ev.IsRecurring)
	return s.events.GetByID(ctx, ev.ID)
}

// Get returns an event the user may read.
func (s *Service) Get(ctx context.Context, userID, eventID uuid.UUID) (*models.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !hasAccess(ev, userID) {
		return nil, apperrors.NewForbiddenError("no access to this event")
	}
	return ev, nil
}

// List returns the user's events (owned and invited-to). When both window
// bounds are given, recurring events are expanded into occurrences within
// the closed [from, to] interval; otherwise templates are returned as-is.
func (s *Service) List(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*models.Event, error) {
	var fromT, toT time.Time
	if from != nil && to != nil {
		if to.Before(*from) {
			return nil, apperrors.NewValidationError("end_date must not be before start_date")
		}
		fromT, toT = *from, *to
	}

	events, err := s.events.ListForUser(ctx, userID, fromT, toT)
	if err != nil {
		return nil, err
	}

	return s.expandEvents(events, from, to), nil
}

// Update applies a partial update to an event the user may edit. Mutations
// always target the stored template; occurrence IDs resolve to it.
func (s *Service) Update(ctx context.Context, userID, eventID uuid.UUID, update *models.EventUpdate) (*models.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !canEdit(ev, userID) {
		return nil, apperrors.NewForbiddenError("no edit permission for this event")
	}

	// Date ordering is checked against the effective values after the
	// partial update, not just the fields present in it.
	start, end := ev.StartDate, ev.EndDate
	if update.StartDate != nil {
		start = *update.StartDate
	}
	if update.EndDate != nil {
		end = *update.EndDate
	}
	if !end.After(start) {
		return nil, apperrors.NewValidationError("end_date must be after start_date")
	}

	recurring := ev.IsRecurring
	if update.IsRecurring != nil {
		recurring = *update.IsRecurring
	}
	rule := ev.RecurrenceRule
	if update.RecurrenceRule != nil {
		rule = *update.RecurrenceRule
	}
	if recurring {
		if rule == "" {
			return nil, apperrors.NewValidationError("recurrence_rule is required for recurring events")
		}
		if update.RecurrenceRule != nil {
			if _, err := recurrence.Parse(rule); err != nil {
				return nil, apperrors.NewValidationError("invalid recurrence_rule: " + err.Error())
			}
		}
	}

	if err := s.events.Update(ctx, eventID, update); err != nil {
		return nil, err
	}

	s.log.Infow("event updated", "event_id", eventID, "user_id", userID)
	return s.events.GetByID(ctx, eventID)
}

// Delete removes an event. Owner only; invites go with it.
func (s *Service) Delete(ctx context.Context, userID, eventID uuid.UUID) error {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !isOwner(ev, userID) {
		return apperrors.NewForbiddenError("only the owner can delete an event")
	}

	if err := s.events.Delete(ctx, eventID); err != nil {
		return err
	}

	s.log.Infow("event deleted", "event_id", eventID, "user_id", userID)
	return nil
}
