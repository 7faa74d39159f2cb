package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leavehq/leave-backend-go/internal/domain/leave"
)

// TriggerAutoApprovalSweep implements leave.LeaveService. It approves every
// pending request whose start date has passed, acting as the system approver
// and going through the same approval path as a human so the ledger debit and
// the status flip stay in one transaction per request. One bad request does
// not stop the sweep.
func (l *LeaveServiceImpl) TriggerAutoApprovalSweep(ctx context.Context) (leave.SweepResult, error) {
	var result leave.SweepResult

	if !l.autoApproval.Enabled() {
		slog.Info("auto-approval sweep skipped: disabled")
		return result, nil
	}

	now := l.requestService.now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	overdue, err := l.LeaveRequestRepository.GetOverduePending(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("failed to get overdue pending requests: %w", err)
	}

	for _, request := range overdue {
		result.Processed++

		approved, err := l.approve(ctx, request.ID, leave.SystemApprover())
		switch {
		case err == nil:
			result.Approved++
			l.dispatch(ctx, "sync auto-approved leave to calendar", func(ctx context.Context) error {
				return l.calendar.OnApproved(ctx, approved)
			})
			l.dispatch(ctx, "notify employee of auto-approval", func(ctx context.Context) error {
				return l.notifyDecision(ctx, approved, leave.SystemApprover(), nil)
			})
		case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed),
			errors.Is(err, leave.ErrLeaveRequestNotFound):
			// Someone beat the sweep to it between scan and approval.
			result.Skipped++
		case errors.Is(err, leave.ErrInsufficientBalance):
			result.Skipped++
			slog.Warn("auto-approval skipped: insufficient balance",
				"request_id", request.ID, "employee_id", request.EmployeeID,
				"leave_kind", request.Kind, "days", request.DaysCount)
		default:
			result.Errors++
			slog.Error("auto-approval failed",
				"request_id", request.ID, "employee_id", request.EmployeeID, "error", err)
		}
	}

	slog.Info("auto-approval sweep finished",
		"processed", result.Processed, "approved", result.Approved,
		"skipped", result.Skipped, "errors", result.Errors)

	return result, nil
}
