package leave

import (
	"time"

	"github.com/leavehq/leave-backend-go/internal/domain/holiday"
	"github.com/shopspring/decimal"
)

const dateKeyLayout = "2006-01-02"

// WorkingDays counts the working days in the inclusive range [start, end],
// excluding Saturdays, Sundays and any date present in the holiday set
// (keyed YYYY-MM-DD). Pure function; half-day weighting is the caller's
// concern. A zero result means the range has no working day and must be
// treated as a validation failure, never a free request.
func WorkingDays(start, end time.Time, holidays map[string]bool) decimal.Decimal {
	days := decimal.Zero
	one := decimal.NewFromInt(1)

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if holidays[d.Format(dateKeyLayout)] {
			continue
		}
		days = days.Add(one)
	}

	return days
}

// HolidaySet expands repository holidays onto the years spanned by
// [start, end]: recurring holidays land on every spanned year, dated ones
// only on their own.
func HolidaySet(holidays []holiday.Holiday, start, end time.Time) map[string]bool {
	set := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		if !h.Recurring {
			set[h.Date.Format(dateKeyLayout)] = true
			continue
		}
		for year := start.Year(); year <= end.Year(); year++ {
			occurrence := time.Date(year, h.Date.Month(), h.Date.Day(), 0, 0, 0, 0, h.Date.Location())
			set[occurrence.Format(dateKeyLayout)] = true
		}
	}
	return set
}
