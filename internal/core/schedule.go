// This file implements the Strategy Pattern for recurring schedules.
// Each frequency (daily, weekly, monthly, yearly) has a stepper that knows how
// to move a number of units away from the schedule's anchor date.

package core

import (
	"errors"
	"fmt"
	"time"
)

// Schedule describes when a recurring transaction materializes: every
// Interval units of Frequency, anchored on Start, optionally ending on End.
type Schedule struct {
	Frequency Frequency `json:"frequency"`
	Interval  int       `json:"interval"`
	Start     Date      `json:"startDate"`
	End       Date      `json:"endDate"` // zero when open-ended
}

// Stepper is the strategy interface for one frequency.
type Stepper interface {
	// Step returns the date units steps after anchor.
	Step(anchor Date, units int) Date
	// Elapsed returns a lower bound on the whole units between anchor and d.
	Elapsed(anchor, d Date) int
}

// DailyStepper steps one calendar day per unit.
type DailyStepper struct{}

func (DailyStepper) Step(anchor Date, units int) Date { return anchor.AddDays(units) }
func (DailyStepper) Elapsed(anchor, d Date) int      { return daysBetween(anchor, d) }

// WeeklyStepper steps seven days per unit.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(anchor Date, units int) Date { return anchor.AddDays(7 * units) }
func (WeeklyStepper) Elapsed(anchor, d Date) int      { return daysBetween(anchor, d) / 7 }

// MonthlyStepper keeps the anchor's day of month, clamped to the last day of
// shorter months (Jan 31 -> Feb 29 -> Mar 31).
type MonthlyStepper struct{}

func (MonthlyStepper) Step(anchor Date, units int) Date { return addMonthsClamped(anchor, units) }

func (MonthlyStepper) Elapsed(anchor, d Date) int {
	return max(monthsBetween(anchor, d)-1, 0)
}

// YearlyStepper keeps the anchor's month and day; Feb 29 falls back to Feb 28.
type YearlyStepper struct{}

func (YearlyStepper) Step(anchor Date, units int) Date { return addMonthsClamped(anchor, 12*units) }

func (YearlyStepper) Elapsed(anchor, d Date) int {
	return max(d.Year()-anchor.Year()-1, 0)
}

// steppers maps frequencies to their strategies.
var steppers = map[Frequency]Stepper{
	Daily:   DailyStepper{},
	Weekly:  WeeklyStepper{},
	Monthly: MonthlyStepper{},
	Yearly:  YearlyStepper{},
}

// StepperFor returns the stepper registered for a frequency.
func StepperFor(f Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return s, nil
}

func (s Schedule) Validate() error {
	if _, err := StepperFor(s.Frequency); err != nil {
		return ErrInvalidFrequency
	}
	if s.Interval < 1 || s.Interval > maxInterval {
		return ErrInvalidInterval
	}
	if err := s.Start.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !s.End.IsZero() && s.End.Before(s.Start) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

// Occurrence returns the k-th occurrence, k = 0 being the start date.
func (s Schedule) Occurrence(k int) Date {
	stepper, err := StepperFor(s.Frequency)
	if err != nil {
		return Date{}
	}
	return stepper.Step(s.Start, k*s.Interval)
}

// FirstOnOrAfter returns the first occurrence not before d. The boolean is
// false when the schedule ends before such an occurrence.
func (s Schedule) FirstOnOrAfter(d Date) (Date, bool) {
	stepper, err := StepperFor(s.Frequency)
	if err != nil || s.Interval < 1 {
		return Date{}, false
	}
	k := 0
	if d.After(s.Start) {
		k = stepper.Elapsed(s.Start, d) / s.Interval
	}
	occ := s.Occurrence(k)
	for occ.Before(d) {
		k++
		occ = s.Occurrence(k)
	}
	if !s.End.IsZero() && occ.After(s.End) {
		return Date{}, false
	}
	return occ, true
}

// Next returns the occurrence that follows after.
func (s Schedule) Next(after Date) (Date, bool) {
	return s.FirstOnOrAfter(after.AddDays(1))
}

// Due lists the occurrences from next (itself an occurrence) up to and
// including asOf, at most limit of them.
func (s Schedule) Due(next, asOf Date, limit int) []Date {
	var out []Date
	occ, ok := next, !next.IsZero()
	if ok && !s.End.IsZero() && occ.After(s.End) {
		ok = false
	}
	for ok && !occ.After(asOf) && len(out) < limit {
		out = append(out, occ)
		occ, ok = s.Next(occ)
	}
	return out
}

func daysBetween(a, b Date) int {
	return int(b.Sub(a.Time) / (24 * time.Hour))
}

func monthsBetween(a, b Date) int {
	return (b.Year()-a.Year())*12 + b.Month() - a.Month()
}

func addMonthsClamped(anchor Date, n int) Date {
	total := anchor.Year()*12 + anchor.Month() - 1 + n
	year, month := total/12, total%12+1
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return NewDate(year, month, min(anchor.Day(), lastDay))
}
