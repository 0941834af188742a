// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 agendo contributors
// https://github.com/fr4nsys/agendo

package recurrence

import (
	"errors"
	"testing"
	"time"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

// ============================================================================
// Parse
// ============================================================================

func TestParse_Valid(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=WEEKLY;UNTIL=20240122T100000Z")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !rule.Start.Equal(utc(2024, time.January, 1, 10, 0)) {
		t.Errorf("Start = %v", rule.Start)
	}
	if rule.Freq != FreqWeekly {
		t.Errorf("Freq = %q, want %q", rule.Freq, FreqWeekly)
	}
	if rule.Until == nil || !rule.Until.Equal(utc(2024, time.January, 22, 10, 0)) {
		t.Errorf("Until = %v", rule.Until)
	}
}

func TestParse_NoUntil(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if rule.Until != nil {
		t.Errorf("Until = %v, want nil", rule.Until)
	}
}

func TestParse_CRLFAndBlankLines(t *testing.T) {
	if _, err := Parse("DTSTART:20240101T100000Z\r\n\r\nRRULE:FREQ=MONTHLY\r\n"); err != nil {
		t.Errorf("Parse() should accept CRLF line endings, got: %v", err)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"garbage", "garbage"},
		{"missing DTSTART", "RRULE:FREQ=DAILY"},
		{"missing RRULE", "DTSTART:20240101T100000Z"},
		{"missing FREQ", "DTSTART:20240101T100000Z\nRRULE:UNTIL=20240122T100000Z"},
		{"unknown frequency", "DTSTART:20240101T100000Z\nRRULE:FREQ=HOURLY"},
		{"bad DTSTART timestamp", "DTSTART:2024-01-01\nRRULE:FREQ=DAILY"},
		{"bad UNTIL timestamp", "DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY;UNTIL=someday"},
		{"BYDAY rejected", "DTSTART:20240101T100000Z\nRRULE:FREQ=WEEKLY;BYDAY=MO,WE"},
		{"COUNT rejected", "DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY;COUNT=10"},
		{"INTERVAL rejected", "DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY;INTERVAL=2"},
		{"non KV part", "DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY;WAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("error should wrap ErrParse, got: %v", err)
			}
		})
	}
}

// ============================================================================
// Between
// ============================================================================

func TestBetween_DailySevenDays(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY")
	if err != nil {
		t.Fatal(err)
	}

	anchor := utc(2024, time.January, 1, 10, 0)
	got := rule.Between(anchor, anchor.AddDate(0, 0, 6))

	if len(got) != 7 {
		t.Fatalf("len = %d, want 7", len(got))
	}
	for i, occ := range got {
		want := anchor.AddDate(0, 0, i)
		if !occ.Equal(want) {
			t.Errorf("occurrence %d = %v, want %v", i, occ, want)
		}
	}
}

func TestBetween_WeeklyWithUntil(t *testing.T) {
	// Spec scenario: weekly from Jan 1 until Jan 22, window spans the month.
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=WEEKLY;UNTIL=20240122T100000Z")
	if err != nil {
		t.Fatal(err)
	}

	got := rule.Between(utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 31, 23, 59))

	want := []time.Time{
		utc(2024, time.January, 1, 10, 0),
		utc(2024, time.January, 8, 10, 0),
		utc(2024, time.January, 15, 10, 0),
		utc(2024, time.January, 22, 10, 0),
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBetween_BoundsInclusive(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY")
	if err != nil {
		t.Fatal(err)
	}

	// Window edges land exactly on occurrences; both must be included.
	from := utc(2024, time.January, 3, 10, 0)
	to := utc(2024, time.January, 5, 10, 0)
	got := rule.Between(from, to)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(got), got)
	}
	if !got[0].Equal(from) || !got[2].Equal(to) {
		t.Errorf("boundary occurrences missing: %v", got)
	}
}

func TestBetween_SingleInstantWindow(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY")
	if err != nil {
		t.Fatal(err)
	}

	at := utc(2024, time.January, 4, 10, 0)
	got := rule.Between(at, at)
	if len(got) != 1 || !got[0].Equal(at) {
		t.Errorf("got %v, want exactly [%v]", got, at)
	}
}

func TestBetween_AnchorAfterWindow(t *testing.T) {
	rule, err := Parse("DTSTART:20240601T100000Z\nRRULE:FREQ=DAILY")
	if err != nil {
		t.Fatal(err)
	}

	got := rule.Between(utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 31, 0, 0))
	if len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestBetween_UntilBeforeWindowStart(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY;UNTIL=20240105T100000Z")
	if err != nil {
		t.Fatal(err)
	}

	got := rule.Between(utc(2024, time.February, 1, 0, 0), utc(2024, time.February, 28, 0, 0))
	if len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestBetween_WindowTighterThanUntil(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY;UNTIL=20241231T100000Z")
	if err != nil {
		t.Fatal(err)
	}

	got := rule.Between(utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 3, 23, 59))
	if len(got) != 3 {
		t.Errorf("len = %d, want 3: %v", len(got), got)
	}
}

func TestBetween_MonthlyClampsAtMonthEnd(t *testing.T) {
	// Anchored on Jan 31: February clamps to its last day, March returns to
	// the 31st, April clamps to the 30th.
	rule, err := Parse("DTSTART:20240131T090000Z\nRRULE:FREQ=MONTHLY")
	if err != nil {
		t.Fatal(err)
	}

	got := rule.Between(utc(2024, time.January, 1, 0, 0), utc(2024, time.April, 30, 23, 59))

	want := []time.Time{
		utc(2024, time.January, 31, 9, 0),
		utc(2024, time.February, 29, 9, 0), // 2024 is a leap year
		utc(2024, time.March, 31, 9, 0),
		utc(2024, time.April, 30, 9, 0),
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBetween_YearlyLeapDayClamps(t *testing.T) {
	rule, err := Parse("DTSTART:20240229T120000Z\nRRULE:FREQ=YEARLY")
	if err != nil {
		t.Fatal(err)
	}

	got := rule.Between(utc(2024, time.January, 1, 0, 0), utc(2026, time.December, 31, 0, 0))

	want := []time.Time{
		utc(2024, time.February, 29, 12, 0),
		utc(2025, time.February, 28, 12, 0),
		utc(2026, time.February, 28, 12, 0),
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBetween_Restartable(t *testing.T) {
	rule, err := Parse("DTSTART:20240101T100000Z\nRRULE:FREQ=DAILY")
	if err != nil {
		t.Fatal(err)
	}

	from := utc(2024, time.January, 1, 0, 0)
	to := utc(2024, time.January, 10, 0, 0)

	first := rule.Between(from, to)
	second := rule.Between(from, to)
	if len(first) != len(second) {
		t.Fatalf("repeated calls differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("occurrence %d differs between calls", i)
		}
	}
}
