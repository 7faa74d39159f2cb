package holiday

import "time"

// Holiday entity. Recurring holidays repeat every year on the same month and
// day (e.g. new year); non-recurring ones apply to their stored year only.
type Holiday struct {
	ID        string
	Name      string
	Date      time.Time
	Recurring bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
