// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package event

import (
	"github.com/google/uuid"

	"github.com/fr4nsys/agendo/internal/models"
)

// isOwner reports whether the user created the event.
func isOwner(ev *models.Event, userID uuid.UUID) bool {
	return ev.UserID == userID
}

// hasAccess reports whether the user may read the event: the owner, or any
// invited user regardless of invite status.
func hasAccess(ev *models.Event, userID uuid.UUID) bool {
	if isOwner(ev, userID) {
		return true
	}
	for _, invite := range ev.Invites {
		if invite.UserID == userID {
			return true
		}
	}
	return false
}

// canEdit reports whether the user may modify the event: the owner, or an
// invited user whose invite carries CanEdit. Invite status does not gate
// editing; a DECLINED invitee with CanEdit keeps the permission.
func canEdit(ev *models.Event, userID uuid.UUID) bool {
	if isOwner(ev, userID) {
		return true
	}
	for _, invite := range ev.Invites {
		if invite.UserID == userID && invite.CanEdit {
			return true
		}
	}
	return false
}
