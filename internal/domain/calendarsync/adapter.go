package calendarsync

import (
	"context"

	"github.com/leavehq/leave-backend-go/internal/domain/leave"
)

// Adapter mirrors approved leave into an external calendar. Fire-and-forget
// like the mail dispatcher: failures are logged by the caller, never
// propagated, and there is no delivery guarantee.
type Adapter interface {
	OnApproved(ctx context.Context, request leave.LeaveRequest) error
	OnRemoved(ctx context.Context, requestID string) error
}
