package calendarsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leavehq/leave-backend-go/internal/config"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:         "req-1",
		EmployeeID: "emp-1",
		Kind:       leave.LeaveKindEarned,
		StartDate:  time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, time.March, 6, 0, 0, 0, 0, time.UTC),
		DaysCount:  decimal.NewFromInt(5),
	}
}

func TestWebhookAdapter_OnApproved(t *testing.T) {
	t.Parallel()

	var gotPath, gotRequestID string
	var gotEvent calendarEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEvent))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(config.CalendarSyncConfig{WebhookURL: server.URL})

	err := adapter.OnApproved(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "POST /events", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "req-1", gotEvent.RequestID)
	assert.Equal(t, "earned", gotEvent.LeaveKind)
	assert.Equal(t, "2026-03-02", gotEvent.StartDate)
	assert.Equal(t, "2026-03-06", gotEvent.EndDate)
}

func TestWebhookAdapter_OnRemoved(t *testing.T) {
	t.Parallel()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(config.CalendarSyncConfig{WebhookURL: server.URL})

	require.NoError(t, adapter.OnRemoved(context.Background(), "req-1"))
	assert.Equal(t, "DELETE /events/req-1", gotPath)
}

func TestWebhookAdapter_OnRemoved_MissingEventIsFine(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(config.CalendarSyncConfig{WebhookURL: server.URL})
	assert.NoError(t, adapter.OnRemoved(context.Background(), "gone"))
}

func TestWebhookAdapter_ServerErrorPropagates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewWebhookAdapter(config.CalendarSyncConfig{WebhookURL: server.URL})
	assert.Error(t, adapter.OnApproved(context.Background(), testRequest()))
}

func TestWebhookAdapter_UnconfiguredIsNoOp(t *testing.T) {
	t.Parallel()

	adapter := NewWebhookAdapter(config.CalendarSyncConfig{})
	assert.NoError(t, adapter.OnApproved(context.Background(), testRequest()))
	assert.NoError(t, adapter.OnRemoved(context.Background(), "req-1"))
}
