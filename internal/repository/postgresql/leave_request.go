package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/leavehq/leave-backend-go/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestColumns = `
	lr.id, lr.employee_id, lr.leave_kind,
	lr.start_date, lr.end_date, lr.days_count, lr.is_half_day,
	lr.reason, lr.status, lr.approved_by, lr.approved_at, lr.rejection_reason,
	lr.applied_at, lr.created_at, lr.updated_at,
	e.full_name AS employee_name`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var request leave.LeaveRequest
	err := row.Scan(
		&request.ID, &request.EmployeeID, &request.Kind,
		&request.StartDate, &request.EndDate, &request.DaysCount, &request.IsHalfDay,
		&request.Reason, &request.Status, &request.ApprovedBy, &request.ApprovedAt, &request.RejectionReason,
		&request.AppliedAt, &request.CreatedAt, &request.UpdatedAt,
		&request.EmployeeName,
	)
	return request, err
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (
			id, employee_id, leave_kind,
			start_date, end_date, days_count, is_half_day,
			reason, status, approved_by,
			applied_at, created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2,
			$3, $4, $5, $6,
			$7, $8, $9,
			NOW(), NOW(), NOW()
		) RETURNING id, applied_at, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		request.EmployeeID, request.Kind,
		request.StartDate, request.EndDate, request.DaysCount, request.IsHalfDay,
		request.Reason, request.Status, request.ApprovedBy,
	).Scan(&request.ID, &request.AppliedAt, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests lr
		JOIN employees e ON lr.employee_id = e.id
		WHERE lr.id = $1
	`

	request, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, err
	}
	return request, nil
}

// GetByEmployeeID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	conditions := []string{"lr.employee_id = $1"}
	args := []interface{}{employeeID}
	return r.list(ctx, conditions, args, filter)
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	return r.list(ctx, nil, nil, filter)
}

func (r *leaveRequestRepositoryImpl) list(ctx context.Context, conditions []string, args []interface{}, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("lr.status = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("lr.leave_kind = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM leave_requests lr" + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT `+leaveRequestColumns+`
		FROM leave_requests lr
		JOIN employees e ON lr.employee_id = e.id
		%s
		ORDER BY lr.applied_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := make([]leave.LeaveRequest, 0)
	for rows.Next() {
		request, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, request)
	}

	return requests, total, rows.Err()
}

// GetOverduePending implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetOverduePending(ctx context.Context, before time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests lr
		JOIN employees e ON lr.employee_id = e.id
		WHERE lr.status = $1 AND lr.start_date < $2
		ORDER BY lr.start_date
	`

	rows, err := q.Query(ctx, query, leave.LeaveRequestStatusPending, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]leave.LeaveRequest, 0)
	for rows.Next() {
		request, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// Update implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, params leave.UpdateLeaveRequestParams) error {
	q := GetQuerier(ctx, r.db)

	updates := make(map[string]interface{})

	if params.StartDate != nil {
		updates["start_date"] = *params.StartDate
	}
	if params.EndDate != nil {
		updates["end_date"] = *params.EndDate
	}
	if params.DaysCount != nil {
		updates["days_count"] = *params.DaysCount
	}
	if params.IsHalfDay != nil {
		updates["is_half_day"] = *params.IsHalfDay
	}
	if params.Reason != nil {
		updates["reason"] = *params.Reason
	}

	if len(updates) == 0 {
		return fmt.Errorf("no updatable fields provided for leave request update")
	}
	updates["updated_at"] = time.Now()

	setClauses := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)+1)
	i := 1
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}

	sql := "UPDATE leave_requests SET " +
		strings.Join(setClauses, ", ") +
		fmt.Sprintf(" WHERE id = $%d RETURNING id", i)
	args = append(args, params.ID)

	var updatedID string
	if err := q.QueryRow(ctx, sql, args...).Scan(&updatedID); err != nil {
		if err == pgx.ErrNoRows {
			return leave.ErrLeaveRequestNotFound
		}
		return fmt.Errorf("failed to update leave request with id %s: %w", params.ID, err)
	}
	return nil
}

// TransitionStatus implements leave.LeaveRequestRepository. The WHERE clause
// on the source status makes the transition a compare-and-swap: whichever
// concurrent caller loses sees ErrLeaveRequestAlreadyProcessed.
func (r *leaveRequestRepositoryImpl) TransitionStatus(ctx context.Context, transition leave.StatusTransition) error {
	q := GetQuerier(ctx, r.db)

	from := make([]string, 0, len(transition.FromStatuses))
	for _, s := range transition.FromStatuses {
		from = append(from, string(s))
	}

	query := `
		UPDATE leave_requests
		SET status = $2,
		    approved_by = $3,
		    approved_at = $4,
		    rejection_reason = $5,
		    updated_at = NOW()
		WHERE id = $1 AND status = ANY($6)
	`

	result, err := q.Exec(ctx, query,
		transition.ID, transition.ToStatus,
		transition.ApprovedBy, transition.ApprovedAt, transition.RejectionReason,
		from,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_requests WHERE id = $1)`, transition.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return leave.ErrLeaveRequestNotFound
		}
		return leave.ErrLeaveRequestAlreadyProcessed
	}

	return nil
}

// Delete implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	result, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// DeleteByEmployeeID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) DeleteByEmployeeID(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE employee_id = $1`, employeeID)
	return err
}
