package leave

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/leavehq/leave-backend-go/internal/domain/calendarsync"
	"github.com/leavehq/leave-backend-go/internal/domain/employee"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/leavehq/leave-backend-go/internal/domain/notification"
	"github.com/leavehq/leave-backend-go/internal/pkg/database"
)

type LeaveServiceImpl struct {
	tx database.TxManager
	leave.LeaveRequestRepository
	employees employee.Repository

	requestService *RequestService
	ledger         *LedgerService

	dispatcher   notification.Dispatcher
	calendar     calendarsync.Adapter
	autoApproval leave.AutoApprovalFlag
}

func NewLeaveService(
	tx database.TxManager,
	requestRepo leave.LeaveRequestRepository,
	employees employee.Repository,
	requestService *RequestService,
	ledger *LedgerService,
	dispatcher notification.Dispatcher,
	calendar calendarsync.Adapter,
	autoApproval leave.AutoApprovalFlag,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:                     tx,
		LeaveRequestRepository: requestRepo,
		employees:              employees,
		requestService:         requestService,
		ledger:                 ledger,
		dispatcher:             dispatcher,
		calendar:               calendar,
		autoApproval:           autoApproval,
	}
}

// CreateLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) CreateLeaveRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	var created leave.LeaveRequest
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = l.requestService.CreateRequest(ctx, req)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	l.dispatch(ctx, "notify manager of submitted leave", func(ctx context.Context) error {
		return l.notifySubmitted(ctx, created)
	})

	return toResponse(created), nil
}

// ApproveLeaveRequest implements leave.LeaveService. The balance debit and
// the status flip commit or roll back together; calendar sync and the
// decision mail run after commit and only log their failures.
func (l *LeaveServiceImpl) ApproveLeaveRequest(ctx context.Context, requestID string, approver leave.Approver, comment *string) error {
	request, err := l.approve(ctx, requestID, approver)
	if err != nil {
		return err
	}

	l.dispatch(ctx, "sync approved leave to calendar", func(ctx context.Context) error {
		return l.calendar.OnApproved(ctx, request)
	})
	l.dispatch(ctx, "notify employee of approval", func(ctx context.Context) error {
		return l.notifyDecision(ctx, request, approver, comment)
	})

	return nil
}

// approve is the single approval path shared by human approvers and the
// auto-approval sweep, so the debit logic cannot drift between the two.
func (l *LeaveServiceImpl) approve(ctx context.Context, requestID string, approver leave.Approver) (leave.LeaveRequest, error) {
	var request leave.LeaveRequest
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = l.requestService.Approve(ctx, requestID, approver)
		return err
	})
	return request, err
}

// RejectLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) RejectLeaveRequest(ctx context.Context, requestID string, approver leave.Approver, reason string) error {
	var request leave.LeaveRequest
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = l.requestService.Reject(ctx, requestID, approver, reason)
		return err
	})
	if err != nil {
		return err
	}

	l.dispatch(ctx, "notify employee of rejection", func(ctx context.Context) error {
		return l.notifyDecision(ctx, request, approver, nil)
	})
	l.dispatch(ctx, "remove speculative calendar entry", func(ctx context.Context) error {
		return l.calendar.OnRemoved(ctx, request.ID)
	})

	return nil
}

// CancelLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) CancelLeaveRequest(ctx context.Context, requestID string, requestingEmployeeID string) error {
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		_, err := l.requestService.Cancel(ctx, requestID, requestingEmployeeID)
		return err
	})
	if err != nil {
		return err
	}

	l.dispatch(ctx, "remove cancelled leave from calendar", func(ctx context.Context) error {
		return l.calendar.OnRemoved(ctx, requestID)
	})

	return nil
}

// UpdateLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) UpdateLeaveRequest(ctx context.Context, req leave.UpdateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	var updated leave.LeaveRequest
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = l.requestService.Update(ctx, req)
		return err
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return toResponse(updated), nil
}

// DeleteLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) DeleteLeaveRequest(ctx context.Context, requestID string) error {
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		_, err := l.requestService.Delete(ctx, requestID)
		return err
	})
	if err != nil {
		return err
	}

	l.dispatch(ctx, "remove deleted leave from calendar", func(ctx context.Context) error {
		return l.calendar.OnRemoved(ctx, requestID)
	})

	return nil
}

// GetLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveRequest(ctx context.Context, requestID string) (leave.LeaveRequestResponse, error) {
	request, err := l.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return toResponse(request), nil
}

// ListLeaveRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) ListLeaveRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	requests, total, err := l.LeaveRequestRepository.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	return toListResponse(requests, total, filter), nil
}

// ListMyLeaveRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) ListMyLeaveRequests(ctx context.Context, employeeID string, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	requests, total, err := l.LeaveRequestRepository.GetByEmployeeID(ctx, employeeID, filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list my leave requests: %w", err)
	}

	return toListResponse(requests, total, filter), nil
}

// GetBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) GetBalance(ctx context.Context, employeeID string, year int) ([]leave.BalanceResponse, error) {
	records, err := l.ledger.Balances(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}

	responses := make([]leave.BalanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, leave.BalanceResponse{
			ID:             record.ID,
			EmployeeID:     record.EmployeeID,
			Kind:           string(record.Kind),
			Year:           record.Year,
			TotalAllocated: record.TotalAllocated,
			CarryForward:   record.CarryForward,
			UsedDays:       record.UsedDays,
			AvailableDays:  record.AvailableDays,
		})
	}

	return responses, nil
}

// OnEmployeeRemoved implements leave.LeaveService. Requests and balances go
// through the repository APIs in one transaction; calendar entries for leave
// that was approved are removed best-effort afterwards.
func (l *LeaveServiceImpl) OnEmployeeRemoved(ctx context.Context, employeeID string) error {
	var approvedIDs []string
	err := l.tx.WithTx(ctx, func(ctx context.Context) error {
		requests, _, err := l.LeaveRequestRepository.GetByEmployeeID(ctx, employeeID, leave.LeaveRequestFilter{
			Status: string(leave.LeaveRequestStatusApproved),
			Page:   1,
			Limit:  100,
		})
		if err != nil {
			return fmt.Errorf("failed to list approved requests: %w", err)
		}
		for _, request := range requests {
			approvedIDs = append(approvedIDs, request.ID)
		}

		if err := l.LeaveRequestRepository.DeleteByEmployeeID(ctx, employeeID); err != nil {
			return fmt.Errorf("failed to delete leave requests: %w", err)
		}
		if err := l.ledger.balances.DeleteByEmployeeID(ctx, employeeID); err != nil {
			return fmt.Errorf("failed to delete leave balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range approvedIDs {
		requestID := id
		l.dispatch(ctx, "remove departed employee's leave from calendar", func(ctx context.Context) error {
			return l.calendar.OnRemoved(ctx, requestID)
		})
	}

	return nil
}

// dispatch runs a side effect outside the transaction boundary. Failures are
// logged and dropped: mail and calendar carry no delivery guarantee and must
// never unwind a committed state change.
func (l *LeaveServiceImpl) dispatch(ctx context.Context, name string, fn func(ctx context.Context) error) {
	go func(ctx context.Context) {
		defer func() {
			if p := recover(); p != nil {
				slog.Error("side effect panicked", "name", name, "panic", p)
			}
		}()
		if err := fn(ctx); err != nil {
			slog.Error("side effect failed", "name", name, "error", err)
		}
	}(context.WithoutCancel(ctx))
}

func (l *LeaveServiceImpl) notifySubmitted(ctx context.Context, request leave.LeaveRequest) error {
	emp, err := l.employees.GetByID(ctx, request.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee: %w", err)
	}
	if emp.ManagerID == nil {
		return nil
	}
	manager, err := l.employees.GetByID(ctx, *emp.ManagerID)
	if err != nil {
		return fmt.Errorf("failed to get manager: %w", err)
	}

	return l.dispatcher.NotifyLeaveSubmitted(ctx, manager.Email, emp.FullName,
		request.Kind, request.StartDate, request.EndDate, request.Reason)
}

func (l *LeaveServiceImpl) notifyDecision(ctx context.Context, request leave.LeaveRequest, approver leave.Approver, comment *string) error {
	emp, err := l.employees.GetByID(ctx, request.EmployeeID)
	if err != nil {
		return fmt.Errorf("failed to get employee: %w", err)
	}

	approverName := "System"
	if id := approver.EmployeeID(); id != nil {
		if approverEmp, err := l.employees.GetByID(ctx, *id); err == nil {
			approverName = approverEmp.FullName
		}
	}

	reason := request.RejectionReason
	if reason == nil {
		reason = comment
	}

	return l.dispatcher.NotifyLeaveDecision(ctx, emp.Email,
		request.Kind, request.StartDate, request.EndDate, request.Status, approverName, reason)
}

func toResponse(request leave.LeaveRequest) leave.LeaveRequestResponse {
	response := leave.LeaveRequestResponse{
		ID:              request.ID,
		EmployeeID:      request.EmployeeID,
		Kind:            string(request.Kind),
		StartDate:       request.StartDate,
		EndDate:         request.EndDate,
		DaysCount:       request.DaysCount,
		IsHalfDay:       request.IsHalfDay,
		Reason:          request.Reason,
		Status:          string(request.Status),
		ApprovedBy:      request.ApprovedBy,
		ApprovedAt:      request.ApprovedAt,
		RejectionReason: request.RejectionReason,
		AppliedAt:       request.AppliedAt,
	}
	if request.EmployeeName != nil {
		response.EmployeeName = *request.EmployeeName
	}
	return response
}

func toListResponse(requests []leave.LeaveRequest, total int64, filter leave.LeaveRequestFilter) leave.ListLeaveRequestResponse {
	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, request := range requests {
		responses = append(responses, toResponse(request))
	}

	return leave.ListLeaveRequestResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Requests:   responses,
	}
}
