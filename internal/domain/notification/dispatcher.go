package notification

import (
	"context"
	"time"

	"github.com/leavehq/leave-backend-go/internal/domain/leave"
)

// Dispatcher delivers leave lifecycle mail. Best-effort: callers dispatch
// after their transaction commits and only log the returned error, so a mail
// outage can never corrupt or roll back request state.
type Dispatcher interface {
	NotifyLeaveSubmitted(ctx context.Context, managerEmail, employeeName string, kind leave.LeaveKind, start, end time.Time, reason *string) error
	NotifyLeaveDecision(ctx context.Context, employeeEmail string, kind leave.LeaveKind, start, end time.Time, decision leave.LeaveRequestStatus, approverName string, rejectionReason *string) error
}
