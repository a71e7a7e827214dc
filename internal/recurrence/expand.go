package recurrence

import (
	"sort"
	"time"
)

// Expand materializes a rule into the ordered list of calendar days it
// covers, formatted with DateLayout. The result is strictly ascending and
// de-duplicated, and includes the start date whenever it satisfies the
// rule itself. Expansion is pure; persistence belongs to the caller.
func Expand(r Rule) ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var dates []time.Time
	switch r.Frequency {
	case Daily:
		dates = expandDaily(r)
	case Weekly:
		dates = expandWeekly(r)
	case Monthly:
		dates = expandByMonths(r, r.Interval)
	case Yearly:
		dates = expandByMonths(r, 12*r.Interval)
	default:
		return nil, ErrInvalidFrequency
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]string, 0, len(dates))
	var prev string
	for _, d := range dates {
		s := d.Format(DateLayout)
		if s == prev {
			continue
		}
		out = append(out, s)
		prev = s
	}
	return out, nil
}

func expandDaily(r Rule) []time.Time {
	var dates []time.Time
	for t := r.Start; !t.After(r.Until); t = t.AddDate(0, 0, r.Interval) {
		dates = append(dates, t)
	}
	return dates
}

// expandWeekly walks week blocks advancing interval weeks at a time from the
// week containing the start date, emitting each selected weekday that falls
// inside [start, until]. An empty day set behaves as if it held only the
// start date's weekday.
func expandWeekly(r Rule) []time.Time {
	days := r.DaysOfWeek
	if len(days) == 0 {
		days = []time.Weekday{r.Start.Weekday()}
	}

	var dates []time.Time
	for ws := weekStart(r.Start); !ws.After(r.Until); ws = ws.AddDate(0, 0, 7*r.Interval) {
		for _, day := range days {
			candidate := ws.AddDate(0, 0, int(day))
			if candidate.Before(r.Start) || candidate.After(r.Until) {
				continue
			}
			dates = append(dates, candidate)
		}
	}
	return dates
}

// weekStart returns the Sunday on or before t, matching the 0=Sunday
// weekday numbering of the wire format.
func weekStart(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// expandByMonths handles monthly and yearly rules: each step advances a
// fixed number of months, preserving the start's day-of-month and clamping
// to the final day of shorter months.
func expandByMonths(r Rule, stepMonths int) []time.Time {
	day := r.Start.Day()

	var dates []time.Time
	for k := 0; ; k += stepMonths {
		months := int(r.Start.Month()) - 1 + k
		year := r.Start.Year() + months/12
		month := time.Month(months%12 + 1)

		d := day
		if last := daysInMonth(year, month); d > last {
			d = last
		}

		t := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		if t.After(r.Until) {
			return dates
		}
		dates = append(dates, t)
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
