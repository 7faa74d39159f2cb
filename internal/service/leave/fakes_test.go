package leave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leavehq/leave-backend-go/internal/domain/employee"
	"github.com/leavehq/leave-backend-go/internal/domain/holiday"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
)

// passThroughTx satisfies database.TxManager without a database. The in-memory
// fakes apply each write atomically, which is enough for these tests.
type passThroughTx struct{}

func (passThroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]leave.LeaveRequest
	nextID   int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]leave.LeaveRequest)}
}

func (f *fakeRequestRepo) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	request.ID = fmt.Sprintf("req-%d", f.nextID)
	now := time.Now()
	request.AppliedAt = now
	request.CreatedAt = now
	request.UpdatedAt = now
	f.requests[request.ID] = request
	return request, nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	request, ok := f.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return request, nil
}

func (f *fakeRequestRepo) GetByEmployeeID(ctx context.Context, employeeID string, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []leave.LeaveRequest
	for _, request := range f.requests {
		if request.EmployeeID != employeeID {
			continue
		}
		if filter.Status != "" && request.Status != leave.LeaveRequestStatus(filter.Status) {
			continue
		}
		if filter.Kind != "" && request.Kind != leave.LeaveKind(filter.Kind) {
			continue
		}
		out = append(out, request)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRequestRepo) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []leave.LeaveRequest
	for _, request := range f.requests {
		if filter.Status != "" && request.Status != leave.LeaveRequestStatus(filter.Status) {
			continue
		}
		if filter.Kind != "" && request.Kind != leave.LeaveKind(filter.Kind) {
			continue
		}
		out = append(out, request)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRequestRepo) GetOverduePending(ctx context.Context, before time.Time) ([]leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []leave.LeaveRequest
	for _, request := range f.requests {
		if request.Status == leave.LeaveRequestStatusPending && request.StartDate.Before(before) {
			out = append(out, request)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) Update(ctx context.Context, params leave.UpdateLeaveRequestParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	request, ok := f.requests[params.ID]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	if params.StartDate != nil {
		request.StartDate = *params.StartDate
	}
	if params.EndDate != nil {
		request.EndDate = *params.EndDate
	}
	if params.DaysCount != nil {
		request.DaysCount = *params.DaysCount
	}
	if params.IsHalfDay != nil {
		request.IsHalfDay = *params.IsHalfDay
	}
	if params.Reason != nil {
		request.Reason = params.Reason
	}
	request.UpdatedAt = time.Now()
	f.requests[params.ID] = request
	return nil
}

// TransitionStatus mirrors the conditional UPDATE: the swap happens only when
// the current status is in FromStatuses, under one lock.
func (f *fakeRequestRepo) TransitionStatus(ctx context.Context, transition leave.StatusTransition) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	request, ok := f.requests[transition.ID]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}

	allowed := false
	for _, from := range transition.FromStatuses {
		if request.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return leave.ErrLeaveRequestAlreadyProcessed
	}

	request.Status = transition.ToStatus
	request.ApprovedBy = transition.ApprovedBy
	request.ApprovedAt = transition.ApprovedAt
	request.RejectionReason = transition.RejectionReason
	request.UpdatedAt = time.Now()
	f.requests[transition.ID] = request
	return nil
}

func (f *fakeRequestRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.requests[id]; !ok {
		return leave.ErrLeaveRequestNotFound
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeRequestRepo) DeleteByEmployeeID(ctx context.Context, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, request := range f.requests {
		if request.EmployeeID == employeeID {
			delete(f.requests, id)
		}
	}
	return nil
}

func (f *fakeRequestRepo) snapshot() map[string]leave.LeaveRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[string]leave.LeaveRequest, len(f.requests))
	for id, request := range f.requests {
		snap[id] = request
	}
	return snap
}

func (f *fakeRequestRepo) restore(snap map[string]leave.LeaveRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = snap
}

type balanceKey struct {
	employeeID string
	kind       leave.LeaveKind
	year       int
}

type fakeBalanceRepo struct {
	mu       sync.Mutex
	balances map[balanceKey]leave.BalanceRecord
	nextID   int
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{balances: make(map[balanceKey]leave.BalanceRecord)}
}

func (f *fakeBalanceRepo) seed(employeeID string, kind leave.LeaveKind, year int, allocated, carry float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	total := decimal.NewFromFloat(allocated)
	cf := decimal.NewFromFloat(carry)
	f.balances[balanceKey{employeeID, kind, year}] = leave.BalanceRecord{
		ID:             fmt.Sprintf("bal-%d", f.nextID),
		EmployeeID:     employeeID,
		Kind:           kind,
		Year:           year,
		TotalAllocated: total,
		CarryForward:   cf,
		UsedDays:       decimal.Zero,
		AvailableDays:  total.Add(cf).Round(2),
	}
}

func (f *fakeBalanceRepo) Create(ctx context.Context, record leave.BalanceRecord) (leave.BalanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	record.ID = fmt.Sprintf("bal-%d", f.nextID)
	record.AvailableDays = record.TotalAllocated.Add(record.CarryForward).Sub(record.UsedDays).Round(2)
	f.balances[balanceKey{record.EmployeeID, record.Kind, record.Year}] = record
	return record, nil
}

func (f *fakeBalanceRepo) GetByEmployeeKindYear(ctx context.Context, employeeID string, kind leave.LeaveKind, year int) (leave.BalanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record, ok := f.balances[balanceKey{employeeID, kind, year}]
	if !ok {
		return leave.BalanceRecord{}, leave.ErrBalanceNotFound
	}
	return record, nil
}

func (f *fakeBalanceRepo) GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.BalanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []leave.BalanceRecord
	for key, record := range f.balances {
		if key.employeeID == employeeID && key.year == year {
			out = append(out, record)
		}
	}
	return out, nil
}

// Debit mirrors the conditional UPDATE guard: the write happens only when the
// result stays non-negative, under one lock.
func (f *fakeBalanceRepo) Debit(ctx context.Context, employeeID string, kind leave.LeaveKind, year int, days decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := balanceKey{employeeID, kind, year}
	record, ok := f.balances[key]
	if !ok {
		return leave.ErrBalanceNotFound
	}

	newUsed := record.UsedDays.Add(days)
	newAvailable := record.TotalAllocated.Add(record.CarryForward).Sub(newUsed)
	if newAvailable.IsNegative() {
		return &leave.InsufficientBalanceError{Available: record.AvailableDays, Requested: days}
	}

	record.UsedDays = newUsed.Round(2)
	record.AvailableDays = newAvailable.Round(2)
	f.balances[key] = record
	return nil
}

func (f *fakeBalanceRepo) Credit(ctx context.Context, employeeID string, kind leave.LeaveKind, year int, days decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := balanceKey{employeeID, kind, year}
	record, ok := f.balances[key]
	if !ok {
		return leave.ErrBalanceNotFound
	}

	newUsed := record.UsedDays.Sub(days)
	if newUsed.IsNegative() {
		newUsed = decimal.Zero
	}
	record.UsedDays = newUsed.Round(2)
	record.AvailableDays = record.TotalAllocated.Add(record.CarryForward).Sub(newUsed).Round(2)
	f.balances[key] = record
	return nil
}

func (f *fakeBalanceRepo) DeleteByEmployeeID(ctx context.Context, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key := range f.balances {
		if key.employeeID == employeeID {
			delete(f.balances, key)
		}
	}
	return nil
}

func (f *fakeBalanceRepo) snapshot() map[balanceKey]leave.BalanceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[balanceKey]leave.BalanceRecord, len(f.balances))
	for key, record := range f.balances {
		snap[key] = record
	}
	return snap
}

func (f *fakeBalanceRepo) restore(snap map[balanceKey]leave.BalanceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances = snap
}

// serializedTx runs transactions one at a time and rolls the fake stores back
// when the function fails, approximating the database's atomicity.
type serializedTx struct {
	mu       sync.Mutex
	requests *fakeRequestRepo
	balances *fakeBalanceRepo
}

func (t *serializedTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	requestSnap := t.requests.snapshot()
	balanceSnap := t.balances.snapshot()

	if err := fn(ctx); err != nil {
		t.requests.restore(requestSnap)
		t.balances.restore(balanceSnap)
		return err
	}
	return nil
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]employee.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
}

func (f *fakeEmployeeRepo) add(emp employee.Employee) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.employees[emp.ID] = emp
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	emp, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

type fakeHolidayRepo struct {
	holidays []holiday.Holiday
}

func (f *fakeHolidayRepo) ByDateRange(ctx context.Context, from, to time.Time) ([]holiday.Holiday, error) {
	var out []holiday.Holiday
	for _, h := range f.holidays {
		if h.Recurring || (!h.Date.Before(from) && !h.Date.After(to)) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHolidayRepo) AllForYear(ctx context.Context, year int) ([]holiday.Holiday, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return f.ByDateRange(ctx, from, to)
}

type notifyCall struct {
	kind     string
	to       string
	decision leave.LeaveRequestStatus
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeDispatcher) NotifyLeaveSubmitted(ctx context.Context, managerEmail, employeeName string, kind leave.LeaveKind, start, end time.Time, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{kind: "submitted", to: managerEmail})
	return nil
}

func (f *fakeDispatcher) NotifyLeaveDecision(ctx context.Context, employeeEmail string, kind leave.LeaveKind, start, end time.Time, decision leave.LeaveRequestStatus, approverName string, rejectionReason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{kind: "decision", to: employeeEmail, decision: decision})
	return nil
}

func (f *fakeDispatcher) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call.kind == kind {
			n++
		}
	}
	return n
}

type fakeCalendar struct {
	mu       sync.Mutex
	approved []string
	removed  []string
}

func (f *fakeCalendar) OnApproved(ctx context.Context, request leave.LeaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, request.ID)
	return nil
}

func (f *fakeCalendar) OnRemoved(ctx context.Context, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, requestID)
	return nil
}

func (f *fakeCalendar) approvedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.approved)
}

func (f *fakeCalendar) removedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.removed)
}

type staticFlag bool

func (f staticFlag) Enabled() bool { return bool(f) }
