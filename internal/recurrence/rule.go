package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// MaxSpanDays caps how far a series may extend past its start date.
// A span of exactly MaxSpanDays is allowed.
const MaxSpanDays = 365

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

var (
	ErrInvalidDateRange  = errors.New("until date is before start date")
	ErrRecurrenceTooLong = errors.New("recurrence spans more than one year")
	ErrInvalidFrequency  = errors.New("unknown recurrence frequency")
	ErrInvalidWeekday    = errors.New("days of week must be in 0-6")
)

// Rule is an immutable description of a repeating pattern. Dates carry no
// time-of-day; Start and Until are midnight UTC.
type Rule struct {
	Frequency  Frequency
	Interval   int            // 1 = every period; 2 = every other, etc.
	DaysOfWeek []time.Weekday // weekly only; empty means same weekday as Start
	Start      time.Time
	Until      time.Time
}

// NewRule builds a Rule from the wire shape of a recurring config.
// daysOfWeek uses 0=Sunday through 6=Saturday.
func NewRule(frequency string, interval int, daysOfWeek []int, startDate, untilDate string) (Rule, error) {
	var r Rule

	switch Frequency(strings.ToLower(strings.TrimSpace(frequency))) {
	case Daily, Weekly, Monthly, Yearly:
		r.Frequency = Frequency(strings.ToLower(strings.TrimSpace(frequency)))
	default:
		return Rule{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, frequency)
	}

	if interval < 1 {
		interval = 1
	}
	r.Interval = interval

	for _, d := range daysOfWeek {
		if d < 0 || d > 6 {
			return Rule{}, fmt.Errorf("%w: %d", ErrInvalidWeekday, d)
		}
		r.DaysOfWeek = append(r.DaysOfWeek, time.Weekday(d))
	}

	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return Rule{}, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	until, err := time.Parse(DateLayout, untilDate)
	if err != nil {
		return Rule{}, fmt.Errorf("parse until date %q: %w", untilDate, err)
	}
	r.Start = start
	r.Until = until

	return r, nil
}

// Validate checks the date range invariants shared by every frequency.
func (r Rule) Validate() error {
	if r.Until.Before(r.Start) {
		return ErrInvalidDateRange
	}
	if r.Until.Sub(r.Start) > MaxSpanDays*24*time.Hour {
		return ErrRecurrenceTooLong
	}
	return nil
}

// Describe returns a human-readable summary, used in logs and broadcasts.
func (r Rule) Describe() string {
	switch r.Frequency {
	case Daily:
		if r.Interval > 1 {
			return fmt.Sprintf("every %d days", r.Interval)
		}
		return "daily"
	case Weekly:
		prefix := "weekly"
		if r.Interval > 1 {
			prefix = fmt.Sprintf("every %d weeks", r.Interval)
		}
		if len(r.DaysOfWeek) > 0 {
			var names []string
			for _, d := range r.DaysOfWeek {
				names = append(names, d.String()[:3])
			}
			return prefix + " on " + strings.Join(names, ", ")
		}
		return prefix
	case Monthly:
		if r.Interval > 1 {
			return fmt.Sprintf("every %d months", r.Interval)
		}
		return "monthly"
	case Yearly:
		if r.Interval > 1 {
			return fmt.Sprintf("every %d years", r.Interval)
		}
		return "yearly"
	}
	return ""
}
