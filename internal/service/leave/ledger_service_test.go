package leave

import (
	"context"
	"testing"

	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_CheckAvailability(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	balances := newFakeBalanceRepo()
	balances.seed("emp-1", leave.LeaveKindCasual, 2026, 10, 2)
	ledger := NewLedgerService(balances)

	ok, available, err := ledger.CheckAvailability(ctx, "emp-1", leave.LeaveKindCasual, 2026, decimal.NewFromInt(12))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "12", available.String())

	ok, _, err = ledger.CheckAvailability(ctx, "emp-1", leave.LeaveKindCasual, 2026, decimal.NewFromFloat(12.5))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedgerService_CheckAvailability_UnknownBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ledger := NewLedgerService(newFakeBalanceRepo())

	_, _, err := ledger.CheckAvailability(ctx, "nobody", leave.LeaveKindSick, 2026, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

func TestLedgerService_DebitThenCredit_RestoresBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	balances := newFakeBalanceRepo()
	balances.seed("emp-1", leave.LeaveKindEarned, 2026, 12, 0)
	ledger := NewLedgerService(balances)

	five := decimal.NewFromInt(5)
	require.NoError(t, ledger.Debit(ctx, "emp-1", leave.LeaveKindEarned, 2026, five))

	record, err := balances.GetByEmployeeKindYear(ctx, "emp-1", leave.LeaveKindEarned, 2026)
	require.NoError(t, err)
	assert.Equal(t, "5", record.UsedDays.String())
	assert.Equal(t, "7", record.AvailableDays.String())

	require.NoError(t, ledger.Credit(ctx, "emp-1", leave.LeaveKindEarned, 2026, five))

	record, err = balances.GetByEmployeeKindYear(ctx, "emp-1", leave.LeaveKindEarned, 2026)
	require.NoError(t, err)
	assert.Equal(t, "0", record.UsedDays.String())
	assert.Equal(t, "12", record.AvailableDays.String())
}

func TestLedgerService_Debit_InsufficientBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	balances := newFakeBalanceRepo()
	balances.seed("emp-1", leave.LeaveKindSick, 2026, 3, 0)
	ledger := NewLedgerService(balances)

	err := ledger.Debit(ctx, "emp-1", leave.LeaveKindSick, 2026, decimal.NewFromFloat(3.5))
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var balanceErr *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &balanceErr)
	assert.Equal(t, "3", balanceErr.Available.String())
	assert.Equal(t, "3.5", balanceErr.Requested.String())

	// The failed debit must not move the balance
	record, err := balances.GetByEmployeeKindYear(ctx, "emp-1", leave.LeaveKindSick, 2026)
	require.NoError(t, err)
	assert.Equal(t, "0", record.UsedDays.String())
	assert.Equal(t, "3", record.AvailableDays.String())
}

func TestLedgerService_Debit_HalfDayAmounts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	balances := newFakeBalanceRepo()
	balances.seed("emp-1", leave.LeaveKindCasual, 2026, 1, 0)
	ledger := NewLedgerService(balances)

	half := decimal.NewFromFloat(0.5)
	require.NoError(t, ledger.Debit(ctx, "emp-1", leave.LeaveKindCasual, 2026, half))
	require.NoError(t, ledger.Debit(ctx, "emp-1", leave.LeaveKindCasual, 2026, half))

	err := ledger.Debit(ctx, "emp-1", leave.LeaveKindCasual, 2026, half)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	record, err := balances.GetByEmployeeKindYear(ctx, "emp-1", leave.LeaveKindCasual, 2026)
	require.NoError(t, err)
	assert.Equal(t, "1", record.UsedDays.String())
	assert.Equal(t, "0", record.AvailableDays.String())
}

func TestLedgerService_Credit_ClampsAtZeroUsed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	balances := newFakeBalanceRepo()
	balances.seed("emp-1", leave.LeaveKindEarned, 2026, 10, 0)
	ledger := NewLedgerService(balances)

	require.NoError(t, ledger.Debit(ctx, "emp-1", leave.LeaveKindEarned, 2026, decimal.NewFromInt(2)))
	// Crediting more than was used clamps instead of going negative
	require.NoError(t, ledger.Credit(ctx, "emp-1", leave.LeaveKindEarned, 2026, decimal.NewFromInt(5)))

	record, err := balances.GetByEmployeeKindYear(ctx, "emp-1", leave.LeaveKindEarned, 2026)
	require.NoError(t, err)
	assert.Equal(t, "0", record.UsedDays.String())
	assert.Equal(t, "10", record.AvailableDays.String())
}

func TestLedgerService_Balances_DetectsCorruption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	balances := newFakeBalanceRepo()
	balances.seed("emp-1", leave.LeaveKindSick, 2026, 10, 0)

	// Corrupt the record behind the ledger's back
	balances.mu.Lock()
	key := balanceKey{"emp-1", leave.LeaveKindSick, 2026}
	record := balances.balances[key]
	record.AvailableDays = decimal.NewFromInt(99)
	balances.balances[key] = record
	balances.mu.Unlock()

	ledger := NewLedgerService(balances)

	_, err := ledger.Balances(ctx, "emp-1", 2026)
	assert.ErrorIs(t, err, leave.ErrLedgerCorruption)
}
