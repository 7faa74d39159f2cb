package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/leavehq/leave-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type balanceRepositoryImpl struct {
	db *database.DB
}

func NewBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &balanceRepositoryImpl{db: db}
}

const balanceColumns = `
	id, employee_id, leave_kind, year,
	total_allocated, carry_forward, used_days, available_days,
	created_at, updated_at`

func scanBalance(row pgx.Row) (leave.BalanceRecord, error) {
	var record leave.BalanceRecord
	err := row.Scan(
		&record.ID, &record.EmployeeID, &record.Kind, &record.Year,
		&record.TotalAllocated, &record.CarryForward, &record.UsedDays, &record.AvailableDays,
		&record.CreatedAt, &record.UpdatedAt,
	)
	return record, err
}

// Create implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) Create(ctx context.Context, record leave.BalanceRecord) (leave.BalanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			id, employee_id, leave_kind, year,
			total_allocated, carry_forward, used_days, available_days,
			created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3,
			$4, $5, $6, round($4 + $5 - $6, 2),
			NOW(), NOW()
		) RETURNING id, available_days, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.Kind, record.Year,
		record.TotalAllocated, record.CarryForward, record.UsedDays,
	).Scan(&record.ID, &record.AvailableDays, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return leave.BalanceRecord{}, err
	}

	return record, nil
}

// GetByEmployeeKindYear implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) GetByEmployeeKindYear(ctx context.Context, employeeID string, kind leave.LeaveKind, year int) (leave.BalanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + balanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND leave_kind = $2 AND year = $3
	`

	record, err := scanBalance(q.QueryRow(ctx, query, employeeID, kind, year))
	if err != nil {
		if err == pgx.ErrNoRows {
			return leave.BalanceRecord{}, leave.ErrBalanceNotFound
		}
		return leave.BalanceRecord{}, err
	}
	return record, nil
}

// GetByEmployeeYear implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.BalanceRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + balanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
		ORDER BY leave_kind
	`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]leave.BalanceRecord, 0)
	for rows.Next() {
		record, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Debit implements leave.BalanceRepository. The availability check sits in the
// WHERE clause, so validation and mutation are one statement and concurrent
// debits on the same row serialize on the row lock instead of double-spending.
func (r *balanceRepositoryImpl) Debit(ctx context.Context, employeeID string, kind leave.LeaveKind, year int, days decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET used_days = round(used_days + $4, 2),
		    available_days = round(total_allocated + carry_forward - (used_days + $4), 2),
		    updated_at = NOW()
		WHERE employee_id = $1 AND leave_kind = $2 AND year = $3
		  AND total_allocated + carry_forward - (used_days + $4) >= 0
	`

	result, err := q.Exec(ctx, query, employeeID, kind, year, days)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		record, err := r.GetByEmployeeKindYear(ctx, employeeID, kind, year)
		if err != nil {
			return err
		}
		return &leave.InsufficientBalanceError{
			Available: record.AvailableDays,
			Requested: days,
		}
	}

	return nil
}

// Credit implements leave.BalanceRepository. Used days are clamped at zero so
// a stray double-credit degrades to a full balance instead of a negative one.
func (r *balanceRepositoryImpl) Credit(ctx context.Context, employeeID string, kind leave.LeaveKind, year int, days decimal.Decimal) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances
		SET used_days = round(GREATEST(used_days - $4, 0), 2),
		    available_days = round(total_allocated + carry_forward - GREATEST(used_days - $4, 0), 2),
		    updated_at = NOW()
		WHERE employee_id = $1 AND leave_kind = $2 AND year = $3
	`

	result, err := q.Exec(ctx, query, employeeID, kind, year, days)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return leave.ErrBalanceNotFound
	}

	return nil
}

// DeleteByEmployeeID implements leave.BalanceRepository.
func (r *balanceRepositoryImpl) DeleteByEmployeeID(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM leave_balances WHERE employee_id = $1`, employeeID)
	return err
}
