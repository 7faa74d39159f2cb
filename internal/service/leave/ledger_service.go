package leave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// LedgerService is the only writer of used/available days. All amounts are
// rounded to two decimal places (half away from zero) at the persistence
// boundary; intermediate math stays exact.
type LedgerService struct {
	balances leave.BalanceRepository
}

func NewLedgerService(balances leave.BalanceRepository) *LedgerService {
	return &LedgerService{balances: balances}
}

// CheckAvailability reports whether the balance covers the requested days and
// returns the current available amount. Read-only; Debit re-validates, so a
// race between check and debit cannot overdraw.
func (s *LedgerService) CheckAvailability(ctx context.Context, employeeID string, kind leave.LeaveKind, year int, requested decimal.Decimal) (bool, decimal.Decimal, error) {
	record, err := s.balances.GetByEmployeeKindYear(ctx, employeeID, kind, year)
	if err != nil {
		return false, decimal.Zero, err
	}
	if err := s.verify(record); err != nil {
		return false, decimal.Zero, err
	}

	return record.AvailableDays.GreaterThanOrEqual(requested), record.AvailableDays, nil
}

// Debit consumes days from the balance, failing with InsufficientBalanceError
// when available days would go negative.
func (s *LedgerService) Debit(ctx context.Context, employeeID string, kind leave.LeaveKind, year int, days decimal.Decimal) error {
	return s.balances.Debit(ctx, employeeID, kind, year, days.Round(2))
}

// Credit restores days to the balance, the exact inverse of Debit. Drift
// (crediting more than was ever used) is clamped by the repository and logged
// here as a ledger defect rather than failing the caller's operation.
func (s *LedgerService) Credit(ctx context.Context, employeeID string, kind leave.LeaveKind, year int, days decimal.Decimal) error {
	days = days.Round(2)

	record, err := s.balances.GetByEmployeeKindYear(ctx, employeeID, kind, year)
	if err != nil {
		return err
	}
	if record.UsedDays.LessThan(days) {
		slog.Error("ledger drift: credit exceeds used days, clamping at zero",
			"employee_id", employeeID, "leave_kind", kind, "year", year,
			"used_days", record.UsedDays, "credit", days,
			"error", leave.ErrLedgerCorruption)
	}

	return s.balances.Credit(ctx, employeeID, kind, year, days)
}

// Balances returns the employee's balance records for a year, verifying the
// conservation invariant on each.
func (s *LedgerService) Balances(ctx context.Context, employeeID string, year int) ([]leave.BalanceRecord, error) {
	records, err := s.balances.GetByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := s.verify(record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// verify checks available = allocated + carry - used. A violation means some
// writer bypassed the ledger; surfaced as a failed operation, not a crash.
func (s *LedgerService) verify(record leave.BalanceRecord) error {
	expected := record.TotalAllocated.Add(record.CarryForward).Sub(record.UsedDays).Round(2)
	if !record.AvailableDays.Equal(expected) {
		slog.Error("ledger corruption detected",
			"employee_id", record.EmployeeID, "leave_kind", record.Kind, "year", record.Year,
			"available_days", record.AvailableDays, "expected", expected)
		return fmt.Errorf("balance %s/%s/%d: available %s, expected %s: %w",
			record.EmployeeID, record.Kind, record.Year,
			record.AvailableDays, expected, leave.ErrLedgerCorruption)
	}
	if record.UsedDays.IsNegative() {
		slog.Error("ledger corruption detected: negative used days",
			"employee_id", record.EmployeeID, "leave_kind", record.Kind, "year", record.Year,
			"used_days", record.UsedDays)
		return fmt.Errorf("balance %s/%s/%d: negative used days %s: %w",
			record.EmployeeID, record.Kind, record.Year, record.UsedDays, leave.ErrLedgerCorruption)
	}
	return nil
}
