package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/leavehq/leave-backend-go/internal/config"
	"github.com/leavehq/leave-backend-go/internal/domain/leave"
	"github.com/leavehq/leave-backend-go/internal/domain/notification"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

const dateLayout = "Monday, 2 January 2006"

type dispatcherImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
}

// NewDispatcher creates an SMTP-backed notification dispatcher.
func NewDispatcher(cfg config.SMTPConfig) (notification.Dispatcher, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &dispatcherImpl{
		cfg:       cfg,
		templates: tmpl,
	}, nil
}

type leaveSubmittedEmailData struct {
	EmployeeName string
	LeaveKind    string
	StartDate    string
	EndDate      string
	Reason       string
}

// NotifyLeaveSubmitted mails the manager that a report filed a leave request.
func (s *dispatcherImpl) NotifyLeaveSubmitted(ctx context.Context, managerEmail, employeeName string, kind leave.LeaveKind, start, end time.Time, reason *string) error {
	data := leaveSubmittedEmailData{
		EmployeeName: employeeName,
		LeaveKind:    string(kind),
		StartDate:    start.Format(dateLayout),
		EndDate:      end.Format(dateLayout),
	}
	if reason != nil {
		data.Reason = *reason
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "leave_submitted.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("Leave Request from %s", employeeName)
	return s.sendHTML(ctx, managerEmail, subject, body.String())
}

type leaveDecisionEmailData struct {
	Decision        string
	LeaveKind       string
	StartDate       string
	EndDate         string
	ApproverName    string
	RejectionReason string
	Rejected        bool
}

// NotifyLeaveDecision mails the employee the outcome of their request.
func (s *dispatcherImpl) NotifyLeaveDecision(ctx context.Context, employeeEmail string, kind leave.LeaveKind, start, end time.Time, decision leave.LeaveRequestStatus, approverName string, rejectionReason *string) error {
	data := leaveDecisionEmailData{
		Decision:     string(decision),
		LeaveKind:    string(kind),
		StartDate:    start.Format(dateLayout),
		EndDate:      end.Format(dateLayout),
		ApproverName: approverName,
		Rejected:     decision == leave.LeaveRequestStatusRejected,
	}
	if rejectionReason != nil {
		data.RejectionReason = *rejectionReason
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "leave_decision.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("Your Leave Request Was %s", string(decision))
	return s.sendHTML(ctx, employeeEmail, subject, body.String())
}

func (s *dispatcherImpl) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := smtp.SendMail(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Wait before retrying (exponential backoff: 1s, 2s, 4s)
		if attempt < maxRetries {
			time.Sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
