package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusTransition is a compare-and-swap update of a request's status. The
// repository applies it only when the current status is one of FromStatuses,
// so two concurrent approvals of the same request produce exactly one winner.
type StatusTransition struct {
	ID              string
	FromStatuses    []LeaveRequestStatus
	ToStatus        LeaveRequestStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
}

// UpdateLeaveRequestParams updates a pending request's editable fields.
type UpdateLeaveRequestParams struct {
	ID        string
	StartDate *time.Time
	EndDate   *time.Time
	DaysCount *decimal.Decimal
	IsHalfDay *bool
	Reason    *string
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	GetByEmployeeID(ctx context.Context, employeeID string, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
	List(ctx context.Context, filter LeaveRequestFilter) ([]LeaveRequest, int64, error)
	// GetOverduePending returns pending requests whose start date is strictly
	// before the cutoff, oldest first. Used by the auto-approval sweep.
	GetOverduePending(ctx context.Context, before time.Time) ([]LeaveRequest, error)
	Update(ctx context.Context, params UpdateLeaveRequestParams) error
	// TransitionStatus fails with ErrLeaveRequestAlreadyProcessed when the
	// request exists but is not in an allowed source status.
	TransitionStatus(ctx context.Context, transition StatusTransition) error
	Delete(ctx context.Context, id string) error
	DeleteByEmployeeID(ctx context.Context, employeeID string) error
}

// BalanceRepository - interface for leave_balances table. Debit and Credit are
// the only writes to used/available days anywhere in the system; both are
// single conditional statements so concurrent mutations of one balance row
// serialize on the row lock.
type BalanceRepository interface {
	Create(ctx context.Context, record BalanceRecord) (BalanceRecord, error)
	GetByEmployeeKindYear(ctx context.Context, employeeID string, kind LeaveKind, year int) (BalanceRecord, error)
	GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]BalanceRecord, error)
	// Debit increases used days, re-validating that available days stay
	// non-negative. Fails with InsufficientBalanceError otherwise.
	Debit(ctx context.Context, employeeID string, kind LeaveKind, year int, days decimal.Decimal) error
	// Credit decreases used days, clamping at zero against drift.
	Credit(ctx context.Context, employeeID string, kind LeaveKind, year int, days decimal.Decimal) error
	DeleteByEmployeeID(ctx context.Context, employeeID string) error
}
