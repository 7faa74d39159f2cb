package response

import (
	"errors"
	"net/http"

	"github.com/leavehq/leave-backend-go/internal/domain/employee"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/leavehq/leave-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Insufficient balance carries the actual numbers when available
	var balanceErr *leave.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		BadRequest(w, "Insufficient leave balance", map[string]string{
			"available_days": balanceErr.Available.String(),
			"requested_days": balanceErr.Requested.String(),
		})
		return
	}

	switch {
	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrAdminAccessRequired):
		Forbidden(w, "Admin access required")
	case errors.Is(err, employee.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrLeaveRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrInsufficientBalance):
		BadRequest(w, "Insufficient leave balance", nil)
	case errors.Is(err, leave.ErrInvalidDateRange):
		BadRequest(w, "End date must not be before start date", nil)
	case errors.Is(err, leave.ErrHalfDayRange):
		BadRequest(w, "Half-day leave must start and end on the same day", nil)
	case errors.Is(err, leave.ErrBackdatedStart):
		BadRequest(w, "Leave must not start in the past", nil)
	case errors.Is(err, leave.ErrNoWorkingDays):
		BadRequest(w, "Requested range contains no working days", nil)
	case errors.Is(err, leave.ErrNotRequestOwner):
		Forbidden(w, "Only the request owner may cancel it")
	case errors.Is(err, leave.ErrLedgerCorruption):
		InternalServerError(w, "Leave balance inconsistency detected")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
