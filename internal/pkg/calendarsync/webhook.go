package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/leavehq/leave-backend-go/internal/config"
	"github.com/leavehq/leave-backend-go/internal/domain/calendarsync"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
)

const requestTimeout = 10 * time.Second

type webhookAdapter struct {
	cfg    config.CalendarSyncConfig
	client *http.Client
}

// NewWebhookAdapter creates a calendar adapter that mirrors approved leave to
// an external calendar service over HTTP. With no webhook URL configured it
// degrades to a no-op, mirroring how the mail dispatcher behaves without SMTP.
func NewWebhookAdapter(cfg config.CalendarSyncConfig) calendarsync.Adapter {
	return &webhookAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: requestTimeout},
	}
}

type calendarEvent struct {
	RequestID  string `json:"request_id"`
	EmployeeID string `json:"employee_id"`
	LeaveKind  string `json:"leave_kind"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	IsHalfDay  bool   `json:"is_half_day"`
}

// OnApproved implements calendarsync.Adapter.
func (a *webhookAdapter) OnApproved(ctx context.Context, request leave.LeaveRequest) error {
	if a.cfg.WebhookURL == "" {
		slog.Warn("calendar sync not configured, skipping event creation", "request_id", request.ID)
		return nil
	}

	event := calendarEvent{
		RequestID:  request.ID,
		EmployeeID: request.EmployeeID,
		LeaveKind:  string(request.Kind),
		StartDate:  request.StartDate.Format("2006-01-02"),
		EndDate:    request.EndDate.Format("2006-01-02"),
		IsHalfDay:  request.IsHalfDay,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal calendar event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL+"/events", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return a.do(req)
}

// OnRemoved implements calendarsync.Adapter.
func (a *webhookAdapter) OnRemoved(ctx context.Context, requestID string) error {
	if a.cfg.WebhookURL == "" {
		slog.Warn("calendar sync not configured, skipping event removal", "request_id", requestID)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.cfg.WebhookURL+"/events/"+requestID, nil)
	if err != nil {
		return fmt.Errorf("failed to build calendar request: %w", err)
	}

	return a.do(req)
}

func (a *webhookAdapter) do(req *http.Request) error {
	// Correlation id so retried deliveries can be traced on the receiving side
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call calendar service: %w", err)
	}
	defer resp.Body.Close()

	// 404 on delete means the event never existed or is already gone, which
	// is the state we wanted.
	if req.Method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("calendar service returned status %d", resp.StatusCode)
	}

	return nil
}
