package core

import (
	"testing"
)

func TestSchedule_FirstOnOrAfter(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		from     Date
		want     Date
		wantOK   bool
	}{
		{
			name:     "before start returns start",
			schedule: Schedule{Frequency: Daily, Interval: 1, Start: NewDate(2024, 1, 10)},
			from:     NewDate(2024, 1, 1),
			want:     NewDate(2024, 1, 10),
			wantOK:   true,
		},
		{
			name:     "every third day",
			schedule: Schedule{Frequency: Daily, Interval: 3, Start: NewDate(2024, 1, 1)},
			from:     NewDate(2024, 1, 5),
			want:     NewDate(2024, 1, 7),
			wantOK:   true,
		},
		{
			name:     "weekly on an occurrence",
			schedule: Schedule{Frequency: Weekly, Interval: 1, Start: NewDate(2024, 1, 1)},
			from:     NewDate(2024, 1, 15),
			want:     NewDate(2024, 1, 15),
			wantOK:   true,
		},
		{
			name:     "biweekly",
			schedule: Schedule{Frequency: Weekly, Interval: 2, Start: NewDate(2024, 1, 1)},
			from:     NewDate(2024, 1, 9),
			want:     NewDate(2024, 1, 15),
			wantOK:   true,
		},
		{
			name:     "monthly clamps to end of february",
			schedule: Schedule{Frequency: Monthly, Interval: 1, Start: NewDate(2024, 1, 31)},
			from:     NewDate(2024, 2, 1),
			want:     NewDate(2024, 2, 29),
			wantOK:   true,
		},
		{
			name:     "monthly returns to anchor day after short month",
			schedule: Schedule{Frequency: Monthly, Interval: 1, Start: NewDate(2024, 1, 31)},
			from:     NewDate(2024, 3, 1),
			want:     NewDate(2024, 3, 31),
			wantOK:   true,
		},
		{
			name:     "quarterly",
			schedule: Schedule{Frequency: Monthly, Interval: 3, Start: NewDate(2024, 1, 15)},
			from:     NewDate(2024, 5, 20),
			want:     NewDate(2024, 7, 15),
			wantOK:   true,
		},
		{
			name:     "yearly leap day",
			schedule: Schedule{Frequency: Yearly, Interval: 1, Start: NewDate(2024, 2, 29)},
			from:     NewDate(2024, 3, 1),
			want:     NewDate(2025, 2, 28),
			wantOK:   true,
		},
		{
			name:     "past end date",
			schedule: Schedule{Frequency: Monthly, Interval: 1, Start: NewDate(2024, 1, 1), End: NewDate(2024, 3, 15)},
			from:     NewDate(2024, 3, 2),
			want:     Date{},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.schedule.FirstOnOrAfter(tt.from)
			if ok != tt.wantOK || !got.Equal(tt.want) {
				t.Errorf("FirstOnOrAfter(%s) = %s, %v; want %s, %v", tt.from, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSchedule_Next(t *testing.T) {
	s := Schedule{Frequency: Monthly, Interval: 1, Start: NewDate(2024, 1, 31)}
	got, ok := s.Next(NewDate(2024, 1, 31))
	if !ok || !got.Equal(NewDate(2024, 2, 29)) {
		t.Fatalf("Next = %s, %v", got, ok)
	}
	got, ok = s.Next(got)
	if !ok || !got.Equal(NewDate(2024, 3, 31)) {
		t.Fatalf("Next = %s, %v", got, ok)
	}
}

func TestSchedule_Due(t *testing.T) {
	s := Schedule{Frequency: Weekly, Interval: 1, Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 20)}

	t.Run("catches up to as-of date", func(t *testing.T) {
		due := s.Due(NewDate(2024, 1, 1), NewDate(2024, 1, 16), 100)
		want := []Date{NewDate(2024, 1, 1), NewDate(2024, 1, 8), NewDate(2024, 1, 15)}
		if len(due) != len(want) {
			t.Fatalf("Due = %v, want %v", due, want)
		}
		for i := range want {
			if !due[i].Equal(want[i]) {
				t.Fatalf("Due[%d] = %s, want %s", i, due[i], want[i])
			}
		}
	})

	t.Run("stops at end date", func(t *testing.T) {
		due := s.Due(NewDate(2024, 1, 15), NewDate(2024, 3, 1), 100)
		if len(due) != 1 || !due[0].Equal(NewDate(2024, 1, 15)) {
			t.Fatalf("Due = %v", due)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		due := s.Due(NewDate(2024, 1, 1), NewDate(2024, 3, 1), 2)
		if len(due) != 2 {
			t.Fatalf("expected 2 occurrences, got %d", len(due))
		}
	})

	t.Run("nothing due yet", func(t *testing.T) {
		if due := s.Due(NewDate(2024, 1, 8), NewDate(2024, 1, 7), 10); len(due) != 0 {
			t.Fatalf("expected none, got %v", due)
		}
	})

	t.Run("exhausted schedule", func(t *testing.T) {
		if due := s.Due(Date{}, NewDate(2024, 3, 1), 10); len(due) != 0 {
			t.Fatalf("expected none, got %v", due)
		}
	})
}
