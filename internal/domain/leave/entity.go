package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaveKind maps to leave_kind_enum in DB
type LeaveKind string

const (
	LeaveKindSick         LeaveKind = "sick"
	LeaveKindCasual       LeaveKind = "casual"
	LeaveKindEarned       LeaveKind = "earned"
	LeaveKindCompensation LeaveKind = "compensation"
)

func (k LeaveKind) Valid() bool {
	switch k {
	case LeaveKindSick, LeaveKindCasual, LeaveKindEarned, LeaveKindCompensation:
		return true
	}
	return false
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved  LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected  LeaveRequestStatus = "rejected"
	LeaveRequestStatusCancelled LeaveRequestStatus = "cancelled"
)

// Approver identifies who decided on a request. Auto-approval and admin
// accounts without an employee profile act as the system approver, which
// persists as a NULL approved_by instead of a dangling reference.
type Approver struct {
	employeeID *string
}

func EmployeeApprover(employeeID string) Approver {
	return Approver{employeeID: &employeeID}
}

func SystemApprover() Approver {
	return Approver{}
}

// EmployeeID returns nil for the system approver.
func (a Approver) EmployeeID() *string {
	return a.employeeID
}

func (a Approver) IsSystem() bool {
	return a.employeeID == nil
}

// LeaveRequest entity
type LeaveRequest struct {
	ID         string
	EmployeeID string
	Kind       LeaveKind

	StartDate time.Time
	EndDate   time.Time

	// DaysCount is derived from the working-day calendar at creation time
	// (fixed 0.5 for half-day requests) and never recomputed after approval.
	DaysCount decimal.Decimal
	IsHalfDay bool

	Reason *string

	Status          LeaveRequestStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string

	AppliedAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	EmployeeName *string
}

// BalanceRecord entity, one row per (employee, leave kind, year).
// Invariant: AvailableDays == TotalAllocated + CarryForward - UsedDays.
type BalanceRecord struct {
	ID         string
	EmployeeID string
	Kind       LeaveKind
	Year       int

	TotalAllocated decimal.Decimal
	CarryForward   decimal.Decimal
	UsedDays       decimal.Decimal
	AvailableDays  decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}
