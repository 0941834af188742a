// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package event

import (
	"sort"
	"time"

	"github.com/fr4nsys/agendo/internal/models"
	"github.com/fr4nsys/agendo/internal/pkg/recurrence"
)

// materialize produces one dated occurrence of a recurring template. The
// occurrence keeps the template's duration and shares the owner summary and
// invite slice as a read-only projection.
func materialize(template *models.Event, start time.Time) *models.Event {
	occurrence := *template
	occurrence.StartDate = start
	occurrence.EndDate = start.Add(template.Duration())
	occurrence.IsRecurringInstance = true
	occurrence.OriginalEventID = &template.ID
	return &occurrence
}

// expandEvents turns recurring templates into dated occurrences within the
// closed [from, to] window. Without a window the input is returned sorted
// but unexpanded. A template whose rule fails to parse is emitted once,
// unmodified: a stored malformed rule must never make the whole listing
// fail.
func (s *Service) expandEvents(events []*models.Event, from, to *time.Time) []*models.Event {
	if from == nil || to == nil {
		sortByStart(events)
		return events
	}

	expanded := make([]*models.Event, 0, len(events))
	for _, ev := range events {
		if !ev.IsRecurring || ev.RecurrenceRule == "" {
			expanded = append(expanded, ev)
			continue
		}

		rule, err := recurrence.Parse(ev.RecurrenceRule)
		if err != nil {
			s.log.Debugw("recurrence rule unparsable, emitting template",
				"event_id", ev.ID, "error", err)
			expanded = append(expanded, ev)
			continue
		}

		for _, start := range rule.Between(*from, *to) {
			expanded = append(expanded, materialize(ev, start))
		}
	}

	sortByStart(expanded)
	return expanded
}

// sortByStart orders events by start date, keeping input order for ties.
func sortByStart(events []*models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartDate.Before(events[j].StartDate)
	})
}
