// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package event

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/fr4nsys/agendo/internal/models"
	apperrors "github.com/fr4nsys/agendo/internal/pkg/errors"
)

// InviteInput is the payload for inviting users to an event. Invitees may
// be named by ID, by email, or both; the sets are merged.
type InviteInput struct {
	UserIDs []uuid.UUID `json:"user_ids"`
	Emails  []string    `json:"emails" validate:"omitempty,dive,email"`
	CanEdit bool        `json:"can_edit"`
}

// Invite creates or refreshes invites for the given users. Owner only.
// Email resolution is all-or-nothing: any unknown email fails the whole
// call and nothing is written. A re-invite resets the status to PENDING
// and overwrites can_edit.
func (s *Service) Invite(ctx context.Context, userID, eventID uuid.UUID, input InviteInput) (*models.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !isOwner(ev, userID) {
		return nil, apperrors.NewForbiddenError("only the owner can manage invites")
	}

	inviteeIDs, err := s.resolveInvitees(ctx, ev, input)
	if err != nil {
		return nil, err
	}
	if len(inviteeIDs) == 0 {
		return nil, apperrors.NewValidationError("no invitees given")
	}

	if err := s.invites.UpsertBatch(ctx, eventID, inviteeIDs, input.CanEdit); err != nil {
		return nil, err
	}

	s.log.Infow("invites sent", "event_id", eventID, "count", len(inviteeIDs), "can_edit", input.CanEdit)
	return s.events.GetByID(ctx, eventID)
}

// resolveInvitees merges explicit user IDs and resolved emails into one
// deduplicated set, verifying every invitee exists and none is the owner.
func (s *Service) resolveInvitees(ctx context.Context, ev *models.Event, input InviteInput) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID

	add := func(id uuid.UUID) error {
		if id == ev.UserID {
			return apperrors.NewValidationError("cannot invite the event owner")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		return nil
	}

	for _, id := range input.UserIDs {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			return nil, err
		}
		if err := add(id); err != nil {
			return nil, err
		}
	}

	if len(input.Emails) > 0 {
		found, err := s.users.GetByEmails(ctx, input.Emails)
		if err != nil {
			return nil, err
		}

		var missing []string
		for _, email := range input.Emails {
			user, ok := found[strings.ToLower(strings.TrimSpace(email))]
			if !ok {
				missing = append(missing, email)
				continue
			}
			if err := add(user.ID); err != nil {
				return nil, err
			}
		}
		if len(missing) > 0 {
			return nil, apperrors.NewValidationError(
				"unknown emails: " + strings.Join(missing, ", "))
		}
	}

	return ids, nil
}

// RemoveInvite deletes a user's invite. Owner only.
func (s *Service) RemoveInvite(ctx context.Context, userID, eventID, inviteeID uuid.UUID) error {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !isOwner(ev, userID) {
		return apperrors.NewForbiddenError("only the owner can manage invites")
	}

	if err := s.invites.Delete(ctx, eventID, inviteeID); err != nil {
		return err
	}

	s.log.Infow("invite removed", "event_id", eventID, "invitee", inviteeID)
	return nil
}

// Respond records the invited user's answer. Only ACCEPTED and DECLINED
// are legal; PENDING is reachable solely through a re-invite by the owner.
func (s *Service) Respond(ctx context.Context, userID, eventID uuid.UUID, status models.InviteStatus) (*models.EventInvite, error) {
	if !status.ValidResponse() {
		return nil, apperrors.NewValidationError("status must be ACCEPTED or DECLINED")
	}

	// Existence of the invite is the access check: only invitees have one.
	if _, err := s.invites.Get(ctx, eventID, userID); err != nil {
		return nil, err
	}

	if err := s.invites.UpdateStatus(ctx, eventID, userID, status); err != nil {
		return nil, err
	}

	s.log.Infow("invite response", "event_id", eventID, "user_id", userID, "status", status)
	return s.invites.Get(ctx, eventID, userID)
}

// PendingInvites returns the caller's PENDING invites with event payloads.
func (s *Service) PendingInvites(ctx context.Context, userID uuid.UUID) ([]*models.EventInvite, error) {
	return s.invites.ListPendingForUser(ctx, userID)
}

// ListInvites returns an event's invites for anyone with read access.
func (s *Service) ListInvites(ctx context.Context, userID, eventID uuid.UUID) ([]*models.EventInvite, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !hasAccess(ev, userID) {
		return nil, apperrors.NewForbiddenError("no access to this event")
	}
	return ev.Invites, nil
}
