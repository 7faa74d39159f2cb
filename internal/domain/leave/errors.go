package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrLeaveRequestNotFound         = errors.New("Leave request not found")
	ErrBalanceNotFound              = errors.New("Leave balance not found")
	ErrLeaveRequestAlreadyProcessed = errors.New("Leave request already processed")
	ErrInsufficientBalance          = errors.New("Insufficient leave balance")
	ErrInvalidDateRange             = errors.New("Start date must not be after end date")
	ErrHalfDayRange                 = errors.New("Half-day leave must start and end on the same date")
	ErrBackdatedStart               = errors.New("Leave cannot start in the past")
	ErrNoWorkingDays                = errors.New("Requested range contains no working days")
	ErrNotRequestOwner              = errors.New("Leave request belongs to another employee")
	ErrLedgerCorruption             = errors.New("Leave balance ledger is inconsistent")
)

// InsufficientBalanceError carries the numbers the caller needs to explain the
// rejection. It matches ErrInsufficientBalance under errors.Is.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance: requested %s day(s), %s available",
		e.Requested.String(), e.Available.String())
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
