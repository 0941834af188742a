// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

// Package recurrence implements a minimal iCalendar recurrence subset:
//
//	DTSTART:<basic-ISO>Z
//	RRULE:FREQ=<DAILY|WEEKLY|MONTHLY|YEARLY>[;UNTIL=<basic-ISO>Z]
//
// Any other RRULE part (BYDAY, COUNT, INTERVAL, ...) is rejected at parse
// time so a rule never silently means something narrower than it says.
// All timestamps are UTC.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrParse is the sentinel wrapped by all rule parsing failures.
var ErrParse = errors.New("malformed recurrence rule")

// timestampLayout is the iCalendar basic-ISO UTC form, e.g. 20240101T100000Z.
const timestampLayout = "20060102T150405Z"

// Frequency is the recurrence stepping unit.
type Frequency string

// Supported frequencies.
const (
	FreqDaily   Frequency = "DAILY"
	FreqWeekly  Frequency = "WEEKLY"
	FreqMonthly Frequency = "MONTHLY"
	FreqYearly  Frequency = "YEARLY"
)

// Rule is a parsed recurrence rule. Rules are value types with no internal
// cursor: Between is a pure function of (rule, window).
type Rule struct {
	// Start is the anchor instant (DTSTART). The anchor itself is the first
	// occurrence.
	Start time.Time

	// Freq is the stepping unit.
	Freq Frequency

	// Until, when non-nil, is an inclusive hard stop on occurrences.
	Until *time.Time
}

// Parse parses rule text into a Rule. Failures wrap ErrParse.
func Parse(text string) (Rule, error) {
	var (
		rule     Rule
		sawStart bool
		sawRRule bool
	)

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "DTSTART:"):
			ts, err := parseTimestamp(strings.TrimPrefix(line, "DTSTART:"))
			if err != nil {
				return Rule{}, fmt.Errorf("%w: DTSTART: %v", ErrParse, err)
			}
			rule.Start = ts
			sawStart = true

		case strings.HasPrefix(line, "RRULE:"):
			if err := parseRRule(strings.TrimPrefix(line, "RRULE:"), &rule); err != nil {
				return Rule{}, err
			}
			sawRRule = true

		default:
			return Rule{}, fmt.Errorf("%w: unexpected line %q", ErrParse, line)
		}
	}

	if !sawStart {
		return Rule{}, fmt.Errorf("%w: missing DTSTART", ErrParse)
	}
	if !sawRRule {
		return Rule{}, fmt.Errorf("%w: missing RRULE", ErrParse)
	}
	return rule, nil
}

func parseRRule(s string, rule *Rule) error {
	var sawFreq bool

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("%w: RRULE part %q is not KEY=VALUE", ErrParse, part)
		}

		switch key {
		case "FREQ":
			switch Frequency(value) {
			case FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
				rule.Freq = Frequency(value)
			default:
				return fmt.Errorf("%w: unknown frequency %q", ErrParse, value)
			}
			sawFreq = true

		case "UNTIL":
			ts, err := parseTimestamp(value)
			if err != nil {
				return fmt.Errorf("%w: UNTIL: %v", ErrParse, err)
			}
			rule.Until = &ts

		default:
			return fmt.Errorf("%w: unsupported RRULE part %q", ErrParse, key)
		}
	}

	if !sawFreq {
		return fmt.Errorf("%w: RRULE missing FREQ", ErrParse)
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts.UTC(), nil
}

// Between returns the rule's occurrence instants inside [from, to], both
// bounds inclusive, in ascending order. The window and the rule's UNTIL
// bound the result, whichever is tighter.
func (r Rule) Between(from, to time.Time) []time.Time {
	limit := to
	if r.Until != nil && r.Until.Before(limit) {
		limit = *r.Until
	}

	var out []time.Time
	for n := 0; ; n++ {
		occ := r.occurrence(n)
		if occ.After(limit) {
			break
		}
		if !occ.Before(from) {
			out = append(out, occ)
		}
	}
	return out
}

// occurrence computes the nth occurrence (0 = anchor). Monthly and yearly
// steps are computed from the anchor each time so the anchor's day-of-month
// is preserved: Jan 31 clamps to Feb 28/29 and returns to Mar 31 rather
// than drifting to the 28th forever.
func (r Rule) occurrence(n int) time.Time {
	switch r.Freq {
	case FreqDaily:
		return r.Start.AddDate(0, 0, n)
	case FreqWeekly:
		return r.Start.AddDate(0, 0, 7*n)
	case FreqMonthly:
		return addMonthsClamped(r.Start, n)
	case FreqYearly:
		return addMonthsClamped(r.Start, 12*n)
	default:
		// Unreachable for parsed rules; treat as a single occurrence.
		if n == 0 {
			return r.Start
		}
		return r.Start.AddDate(1000, 0, 0)
	}
}

// addMonthsClamped advances t by n calendar months, clamping the day to the
// target month's last valid day (Jan 31 + 1 month = Feb 28, or Feb 29 in a
// leap year).
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	y := year + (int(month)-1+n)/12
	m := time.Month((int(month)-1+n)%12 + 1)

	if last := daysIn(y, m); day > last {
		day = last
	}

	h, min, sec := t.Clock()
	return time.Date(y, m, day, h, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
