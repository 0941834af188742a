// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fr4nsys/agendo/internal/models"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
	"github.com/fr4nsys/agendo/internal/services/event"
)

// EventsHandler handles calendar event endpoints.
type EventsHandler struct {
	BaseHandler
	eventService *event.Service
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(eventService *event.Service, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		BaseHandler:  NewBaseHandler(log),
		eventService: eventService,
	}
}

// Routes returns the event routes. All of them require authentication;
// the router mounts this subtree behind the auth middleware.
func (h *EventsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/invites/pending", h.PendingInvites)

	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)

		r.Get("/invites", h.ListInvites)
		r.Post("/invite", h.Invite)
		r.Delete("/invite/{userID}", h.RemoveInvite)
		r.Patch("/invite/respond", h.Respond)
	})

	return r
}

// Create handles POST /events.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var input event.CreateInput
	if err := h.ParseJSON(r, &input); err != nil {
		h.HandleError(w, err)
		return
	}

	created, err := h.eventService.Create(r.Context(), userID, input)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.Created(w, created)
}

// List handles GET /events?start_date=&end_date=. When both bounds are
// present, recurring events are expanded into dated occurrences.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	from, err := h.QueryParamTime(r, "start_date")
	if err != nil {
		h.HandleError(w, err)
		return
	}
	to, err := h.QueryParamTime(r, "end_date")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	events, err := h.eventService.List(r.Context(), userID, from, to)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}

	h.OK(w, events)
}

// Get handles GET /events/{eventID}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	eventID, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	ev, err := h.eventService.Get(r.Context(), userID, eventID)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ev)
}

// Update handles PATCH /events/{eventID}. Absent fields stay unchanged.
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	eventID, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var update models.EventUpdate
	if err := h.ParseJSON(r, &update); err != nil {
		h.HandleError(w, err)
		return
	}

	ev, err := h.eventService.Update(r.Context(), userID, eventID, &update)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ev)
}

// Delete handles DELETE /events/{eventID}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	eventID, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.eventService.Delete(r.Context(), userID, eventID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// Invite handles POST /events/{eventID}/invite.
func (h *EventsHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	eventID, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var input event.InviteInput
	if err := h.ParseJSON(r, &input); err != nil {
		h.HandleError(w, err)
		return
	}

	ev, err := h.eventService.Invite(r.Context(), userID, eventID, input)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, ev)
}

// RemoveInvite handles DELETE /events/{eventID}/invite/{userID}.
func (h *EventsHandler) RemoveInvite(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	eventID, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}
	inviteeID, err := h.URLParamUUID(r, "userID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.eventService.RemoveInvite(r.Context(), userID, eventID, inviteeID); err != nil {
		h.HandleError(w, err)
		return
	}

	h.NoContent(w)
}

// RespondRequest is the payload for answering an invite.
type RespondRequest struct {
	Status models.InviteStatus `json:"status" validate:"required,oneof=ACCEPTED DECLINED"`
}

// Respond handles PATCH /events/{eventID}/invite/respond.
func (h *EventsHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	eventID, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	var req RespondRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	invite, err := h.eventService.Respond(r.Context(), userID, eventID, req.Status)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	h.OK(w, invite)
}

// ListInvites handles GET /events/{eventID}/invites.
func (h *EventsHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	eventID, err := h.URLParamUUID(r, "eventID")
	if err != nil {
		h.HandleError(w, err)
		return
	}

	invites, err := h.eventService.ListInvites(r.Context(), userID, eventID)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if invites == nil {
		invites = []*models.EventInvite{}
	}

	h.OK(w, invites)
}

// PendingInvites handles GET /events/invites/pending.
func (h *EventsHandler) PendingInvites(w http.ResponseWriter, r *http.Request) {
	userID, err := h.GetUserID(r)
	if err != nil {
		h.HandleError(w, err)
		return
	}

	invites, err := h.eventService.PendingInvites(r.Context(), userID)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	if invites == nil {
		invites = []*models.EventInvite{}
	}

	h.OK(w, invites)
}
