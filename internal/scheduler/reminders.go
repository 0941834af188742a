// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

// Package scheduler runs the reminder scanner: a cron-driven sweep that
// finds event occurrences whose reminder offsets fall due and hands them
// to a notifier. Recurring events are expanded in memory per sweep, so
// reminders fire for occurrences that are never persisted.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fr4nsys/agendo/internal/models"
	"github.com/fr4nsys/agendo/internal/pkg/errors"
	"github.com/fr4nsys/agendo/internal/pkg/logger"
	"github.com/fr4nsys/agendo/internal/pkg/recurrence"
)

// Config holds reminder scanner configuration.
type Config struct {
	// ScanSpec is the cron spec (with seconds) for the sweep.
	ScanSpec string

	// Lookahead bounds how far ahead occurrences are expanded per sweep.
	// A reminder offset larger than the lookahead still fires, just later,
	// once the occurrence enters the horizon minus its offset.
	Lookahead time.Duration

	// Tick is the width of the due window. It must match the sweep
	// cadence or reminders at the boundary fire twice or not at all.
	Tick time.Duration
}

// DefaultConfig returns the default scanner configuration: sweep once a
// minute at second zero.
func DefaultConfig() *Config {
	return &Config{
		ScanSpec:  "0 * * * * *",
		Lookahead: 31 * 24 * time.Hour,
		Tick:      time.Minute,
	}
}

// ReminderStore lists events that carry reminder offsets.
type ReminderStore interface {
	ListWithReminders(ctx context.Context, from, to time.Time) ([]*models.Event, error)
}

// Reminder is a due notification for one occurrence of an event.
type Reminder struct {
	Event       *models.Event
	Occurrence  time.Time
	OffsetMin   int32
	TriggeredAt time.Time
}

// Notifier delivers a due reminder. The default notifier only logs;
// delivery channels plug in here.
type Notifier func(ctx context.Context, reminder Reminder)

// Scanner periodically scans for due reminders.
type Scanner struct {
	config *Config
	store  ReminderStore
	notify Notifier
	cron   *cron.Cron
	logger *logger.Logger

	running bool
	mu      sync.Mutex

	// now is swappable for tests.
	now func() time.Time

	lifecycleCtx context.Context
}

// New creates a reminder scanner. A nil notifier logs due reminders.
func New(store ReminderStore, config *Config, notify Notifier, log *logger.Logger) *Scanner {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Scanner{
		config: config,
		store:  store,
		notify: notify,
		logger: log.Named("reminders"),
		now:    time.Now,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
	}
	if s.notify == nil {
		s.notify = s.logReminder
	}
	return s
}

// Start begins the periodic sweep. The context bounds each sweep and is
// dropped on Stop.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New(errors.CodeValidation, "reminder scanner already running")
	}

	s.lifecycleCtx = ctx
	if _, err := s.cron.AddFunc(s.config.ScanSpec, s.sweep); err != nil {
		return errors.Wrap(err, errors.CodeValidation, "invalid scan spec")
	}

	s.running = true
	s.cron.Start()
	s.logger.Infow("reminder scanner started",
		"scan_spec", s.config.ScanSpec,
		"lookahead", s.config.Lookahead,
	)
	return nil
}

// Stop halts the sweep and waits for a running one to finish.
func (s *Scanner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	<-s.cron.Stop().Done()
	s.logger.Infow("reminder scanner stopped")
}

func (s *Scanner) sweep() {
	ctx, cancel := context.WithTimeout(s.lifecycleCtx, 30*time.Second)
	defer cancel()

	now := s.now().UTC().Truncate(s.config.Tick)
	due, err := s.Scan(ctx, now)
	if err != nil {
		s.logger.Errorw("reminder sweep failed", "error", err)
		return
	}
	for _, reminder := range due {
		s.notify(ctx, reminder)
	}
}

// Scan returns the reminders due in the tick starting at now. A reminder
// is due when occurrence start minus its offset lands inside [now,
// now+tick). Recurring events are expanded over the lookahead window.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]Reminder, error) {
	horizon := now.Add(s.config.Lookahead)
	events, err := s.store.ListWithReminders(ctx, now, horizon)
	if err != nil {
		return nil, err
	}

	var due []Reminder
	for _, event := range events {
		for _, start := range s.occurrences(event, now, horizon) {
			for _, offset := range event.Reminders {
				fireAt := start.Add(-time.Duration(offset) * time.Minute)
				if !fireAt.Before(now) && fireAt.Before(now.Add(s.config.Tick)) {
					due = append(due, Reminder{
						Event:       event,
						Occurrence:  start,
						OffsetMin:   offset,
						TriggeredAt: now,
					})
				}
			}
		}
	}
	return due, nil
}

// occurrences returns the starts of event inside [from, to]. A recurring
// event with an unparsable rule degrades to its stored start, matching
// the read path's fallback.
func (s *Scanner) occurrences(event *models.Event, from, to time.Time) []time.Time {
	if !event.IsRecurring || event.RecurrenceRule == "" {
		return []time.Time{event.StartDate}
	}

	rule, err := recurrence.Parse(event.RecurrenceRule)
	if err != nil {
		s.logger.Debugw("unparsable recurrence rule, using stored start",
			"event_id", event.ID,
			"error", err,
		)
		return []time.Time{event.StartDate}
	}
	return rule.Between(from, to)
}

func (s *Scanner) logReminder(_ context.Context, reminder Reminder) {
	s.logger.Infow("reminder due",
		"event_id", reminder.Event.ID,
		"title", reminder.Event.Title,
		"occurrence", reminder.Occurrence,
		"offset_minutes", reminder.OffsetMin,
	)
}
