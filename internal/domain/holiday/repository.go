package holiday

import (
	"context"
	"time"
)

// Repository - read-only interface for the holidays table.
type Repository interface {
	// ByDateRange returns holidays dated within [from, to] plus all recurring
	// holidays regardless of year. Callers expand recurring entries onto the
	// years they care about.
	ByDateRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
	AllForYear(ctx context.Context, year int) ([]Holiday, error)
}
