package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/leavehq/leave-backend-go/internal/domain/employee"
	"github.com/leavehq/leave-backend-go/internal/domain/holiday"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

var halfDay = decimal.NewFromFloat(0.5)

// RequestService owns the request state machine: pending -> approved,
// rejected or cancelled; approved -> cancelled; hard delete from pending or
// approved. It runs inside whatever transaction the caller has opened and
// performs no side effects of its own.
type RequestService struct {
	requests  leave.LeaveRequestRepository
	employees employee.Repository
	holidays  holiday.Repository
	ledger    *LedgerService

	now func() time.Time
}

func NewRequestService(
	requests leave.LeaveRequestRepository,
	employees employee.Repository,
	holidays holiday.Repository,
	ledger *LedgerService,
) *RequestService {
	return &RequestService{
		requests:  requests,
		employees: employees,
		holidays:  holidays,
		ledger:    ledger,
		now:       time.Now,
	}
}

// CreateRequest validates and persists a new pending request. The working-day
// count is fixed here; it is never recomputed after approval.
func (r *RequestService) CreateRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.LeaveRequest, error) {
	emp, err := r.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to get employee by ID: %w", err)
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to parse start date: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to parse end date: %w", err)
	}

	days, err := r.validateAndCount(ctx, startDate, endDate, req.IsHalfDay)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	year := startDate.Year()
	ok, available, err := r.ledger.CheckAvailability(ctx, emp.ID, leave.LeaveKind(req.Kind), year, days)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if !ok {
		return leave.LeaveRequest{}, &leave.InsufficientBalanceError{Available: available, Requested: days}
	}

	request := leave.LeaveRequest{
		EmployeeID: emp.ID,
		Kind:       leave.LeaveKind(req.Kind),
		StartDate:  startDate,
		EndDate:    endDate,
		DaysCount:  days,
		IsHalfDay:  req.IsHalfDay,
		Reason:     req.Reason,
		Status:     leave.LeaveRequestStatusPending,
		// Suggested approver only; approval authority is checked at decision
		// time, not here.
		ApprovedBy: emp.ManagerID,
	}

	created, err := r.requests.Create(ctx, request)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return created, nil
}

// Approve debits the balance and flips pending -> approved. The debit comes
// first so the transaction rolls the status back if it fails; the
// compare-and-swap transition leaves exactly one winner under concurrency.
func (r *RequestService) Approve(ctx context.Context, requestID string, approver leave.Approver) (leave.LeaveRequest, error) {
	request, err := r.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	if request.Status != leave.LeaveRequestStatusPending {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	year := request.StartDate.Year()
	if err := r.ledger.Debit(ctx, request.EmployeeID, request.Kind, year, request.DaysCount); err != nil {
		return leave.LeaveRequest{}, err
	}

	approvedAt := r.now()
	err = r.requests.TransitionStatus(ctx, leave.StatusTransition{
		ID:           request.ID,
		FromStatuses: []leave.LeaveRequestStatus{leave.LeaveRequestStatusPending},
		ToStatus:     leave.LeaveRequestStatusApproved,
		ApprovedBy:   approver.EmployeeID(),
		ApprovedAt:   &approvedAt,
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	request.Status = leave.LeaveRequestStatusApproved
	request.ApprovedBy = approver.EmployeeID()
	request.ApprovedAt = &approvedAt

	return request, nil
}

// Reject flips pending -> rejected. Rejected leave never consumed balance, so
// there is no ledger movement.
func (r *RequestService) Reject(ctx context.Context, requestID string, approver leave.Approver, reason string) (leave.LeaveRequest, error) {
	request, err := r.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	if request.Status != leave.LeaveRequestStatusPending {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	rejectedAt := r.now()
	err = r.requests.TransitionStatus(ctx, leave.StatusTransition{
		ID:              request.ID,
		FromStatuses:    []leave.LeaveRequestStatus{leave.LeaveRequestStatusPending},
		ToStatus:        leave.LeaveRequestStatusRejected,
		ApprovedBy:      approver.EmployeeID(),
		ApprovedAt:      &rejectedAt,
		RejectionReason: &reason,
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	request.Status = leave.LeaveRequestStatusRejected
	request.ApprovedBy = approver.EmployeeID()
	request.ApprovedAt = &rejectedAt
	request.RejectionReason = &reason

	return request, nil
}

// Cancel is self-service: only the owner may cancel, from pending or
// approved. Cancelling approved leave credits the balance back before the
// status flips, inside the same transaction.
func (r *RequestService) Cancel(ctx context.Context, requestID, requestingEmployeeID string) (leave.LeaveRequest, error) {
	request, err := r.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	if request.EmployeeID != requestingEmployeeID {
		return leave.LeaveRequest{}, leave.ErrNotRequestOwner
	}

	wasApproved := request.Status == leave.LeaveRequestStatusApproved
	if !wasApproved && request.Status != leave.LeaveRequestStatusPending {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	if wasApproved {
		year := request.StartDate.Year()
		if err := r.ledger.Credit(ctx, request.EmployeeID, request.Kind, year, request.DaysCount); err != nil {
			return leave.LeaveRequest{}, err
		}
	}

	err = r.requests.TransitionStatus(ctx, leave.StatusTransition{
		ID: request.ID,
		FromStatuses: []leave.LeaveRequestStatus{
			leave.LeaveRequestStatusPending,
			leave.LeaveRequestStatusApproved,
		},
		ToStatus: leave.LeaveRequestStatusCancelled,
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	request.Status = leave.LeaveRequestStatusCancelled

	return request, nil
}

// Update edits a pending request. Date changes recompute the working-day
// count with the same calendar-aware formula as creation and re-check
// availability against the new count; no debit happens while pending.
func (r *RequestService) Update(ctx context.Context, req leave.UpdateLeaveRequestRequest) (leave.LeaveRequest, error) {
	request, err := r.requests.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	if request.Status != leave.LeaveRequestStatusPending {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestAlreadyProcessed
	}

	startDate := request.StartDate
	endDate := request.EndDate
	isHalfDay := request.IsHalfDay
	datesChanged := false

	if req.StartDate != nil {
		startDate, err = time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("failed to parse start date: %w", err)
		}
		datesChanged = true
	}
	if req.EndDate != nil {
		endDate, err = time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("failed to parse end date: %w", err)
		}
		datesChanged = true
	}
	if req.IsHalfDay != nil && *req.IsHalfDay != isHalfDay {
		isHalfDay = *req.IsHalfDay
		datesChanged = true
	}

	params := leave.UpdateLeaveRequestParams{
		ID:     request.ID,
		Reason: req.Reason,
	}

	if datesChanged {
		days, err := r.validateAndCount(ctx, startDate, endDate, isHalfDay)
		if err != nil {
			return leave.LeaveRequest{}, err
		}

		year := startDate.Year()
		ok, available, err := r.ledger.CheckAvailability(ctx, request.EmployeeID, request.Kind, year, days)
		if err != nil {
			return leave.LeaveRequest{}, err
		}
		if !ok {
			return leave.LeaveRequest{}, &leave.InsufficientBalanceError{Available: available, Requested: days}
		}

		params.StartDate = &startDate
		params.EndDate = &endDate
		params.DaysCount = &days
		params.IsHalfDay = &isHalfDay

		request.StartDate = startDate
		request.EndDate = endDate
		request.DaysCount = days
		request.IsHalfDay = isHalfDay
	}

	if req.Reason != nil {
		request.Reason = req.Reason
	}

	if err := r.requests.Update(ctx, params); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}

	return request, nil
}

// Delete hard-removes a request for administrative cleanup, crediting the
// balance first when the request was approved. Deleting an unknown id fails
// with ErrLeaveRequestNotFound.
func (r *RequestService) Delete(ctx context.Context, requestID string) (leave.LeaveRequest, error) {
	request, err := r.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	if request.Status == leave.LeaveRequestStatusApproved {
		year := request.StartDate.Year()
		if err := r.ledger.Credit(ctx, request.EmployeeID, request.Kind, year, request.DaysCount); err != nil {
			return leave.LeaveRequest{}, err
		}
	}

	if err := r.requests.Delete(ctx, request.ID); err != nil {
		return leave.LeaveRequest{}, err
	}

	return request, nil
}

// validateAndCount enforces the date rules shared by create and update and
// returns the working-day count for the range.
func (r *RequestService) validateAndCount(ctx context.Context, startDate, endDate time.Time, isHalfDay bool) (decimal.Decimal, error) {
	if startDate.After(endDate) {
		return decimal.Zero, leave.ErrInvalidDateRange
	}
	if isHalfDay && !startDate.Equal(endDate) {
		return decimal.Zero, leave.ErrHalfDayRange
	}

	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, startDate.Location())
	if startDate.Before(today) {
		return decimal.Zero, leave.ErrBackdatedStart
	}

	holidays, err := r.holidays.ByDateRange(ctx, startDate, endDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load holidays: %w", err)
	}

	days := WorkingDays(startDate, endDate, HolidaySet(holidays, startDate, endDate))
	if days.IsZero() {
		return decimal.Zero, leave.ErrNoWorkingDays
	}

	if isHalfDay {
		return halfDay, nil
	}
	return days, nil
}
