package leave

import (
	"context"
)

// LeaveService is the caller-facing surface of the request lifecycle and
// balance ledger. Every mutating operation applies its status change and any
// ledger movement as one transaction; notification and calendar sync happen
// after commit and never fail the operation.
type LeaveService interface {
	CreateLeaveRequest(ctx context.Context, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	ApproveLeaveRequest(ctx context.Context, requestID string, approver Approver, comment *string) error
	RejectLeaveRequest(ctx context.Context, requestID string, approver Approver, reason string) error
	CancelLeaveRequest(ctx context.Context, requestID string, requestingEmployeeID string) error
	UpdateLeaveRequest(ctx context.Context, req UpdateLeaveRequestRequest) (LeaveRequestResponse, error)
	DeleteLeaveRequest(ctx context.Context, requestID string) error

	GetLeaveRequest(ctx context.Context, requestID string) (LeaveRequestResponse, error)
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	ListMyLeaveRequests(ctx context.Context, employeeID string, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	GetBalance(ctx context.Context, employeeID string, year int) ([]BalanceResponse, error)

	// TriggerAutoApprovalSweep approves overdue pending requests through the
	// same path as a human approver, acting as the system approver.
	TriggerAutoApprovalSweep(ctx context.Context) (SweepResult, error)

	// OnEmployeeRemoved removes the employee's requests and balances through
	// the repository APIs instead of relying on database cascades.
	OnEmployeeRemoved(ctx context.Context, employeeID string) error
}

// AutoApprovalFlag gates the sweep. Checked at the start of each run so tests
// and operators can toggle it without restarting anything.
type AutoApprovalFlag interface {
	Enabled() bool
}
