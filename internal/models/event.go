// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEventColor is applied when an event is created without a color.
const DefaultEventColor = "#3788d8"

// Event represents a calendar event template. A recurring event is stored
// once; its dated instances are produced at read time by expansion and are
// never persisted.
type Event struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	UserID            uuid.UUID  `json:"user_id" db:"user_id"`
	Title             string     `json:"title" db:"title"`
	Description       string     `json:"description,omitempty" db:"description"`
	StartDate         time.Time  `json:"start_date" db:"start_date"`
	EndDate           time.Time  `json:"end_date" db:"end_date"`
	Location          string     `json:"location,omitempty" db:"location"`
	Color             string     `json:"color" db:"color"`
	IsRecurring       bool       `json:"is_recurring" db:"is_recurring"`
	RecurrenceRule    string     `json:"recurrence_rule,omitempty" db:"recurrence_rule"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty" db:"recurrence_end_date"`
	Reminders         []int32    `json:"reminders" db:"reminders"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`

	// Joined relations.
	User    *UserSummary   `json:"user,omitempty" db:"-"`
	Invites []*EventInvite `json:"invites" db:"-"`

	// Expansion-only fields. Set on occurrences produced from a recurring
	// template; never written to the database. Mutations must target the
	// original event id.
	IsRecurringInstance bool       `json:"is_recurring_instance,omitempty" db:"-"`
	OriginalEventID     *uuid.UUID `json:"original_event_id,omitempty" db:"-"`
}

// Duration returns the span between start and end. Occurrences of a
// recurring event always keep the template's duration.
func (e *Event) Duration() time.Duration {
	return e.EndDate.Sub(e.StartDate)
}

// EventUpdate enumerates the event fields that may change in a partial
// update. A nil field means "leave unchanged".
type EventUpdate struct {
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	Location          *string    `json:"location,omitempty"`
	Color             *string    `json:"color,omitempty"`
	IsRecurring       *bool      `json:"is_recurring,omitempty"`
	RecurrenceRule    *string    `json:"recurrence_rule,omitempty"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty"`
	Reminders         *[]int32   `json:"reminders,omitempty"`
}

// InviteStatus is the lifecycle state of an event invite.
type InviteStatus string

// Invite states. PENDING is set on creation and on every re-invite;
// ACCEPTED/DECLINED are set only by the invited user's response.
const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusDeclined InviteStatus = "DECLINED"
)

// ValidResponse reports whether s is a legal invitee response. PENDING is
// not a response: only a re-invite by the owner resets to it.
func (s InviteStatus) ValidResponse() bool {
	return s == InviteStatusAccepted || s == InviteStatusDeclined
}

// EventInvite represents a per-user relation to an event. Identity is the
// (event, user) pair: at most one row per pair, refreshed on re-invite.
// CanEdit is independent of Status.
type EventInvite struct {
	EventID   uuid.UUID    `json:"event_id" db:"event_id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	Status    InviteStatus `json:"status" db:"status"`
	CanEdit   bool         `json:"can_edit" db:"can_edit"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`

	// Joined relations.
	User  *UserSummary `json:"user,omitempty" db:"-"`
	Event *Event       `json:"event,omitempty" db:"-"`
}
