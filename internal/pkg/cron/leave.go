package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leavehq/leave-backend-go/internal/domain/leave"
)

type LeaveJobs struct {
	leaveService leave.LeaveService
}

func NewLeaveJobs(leaveService leave.LeaveService) *LeaveJobs {
	return &LeaveJobs{leaveService: leaveService}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_approve_overdue_leaves", 1*time.Hour, j.AutoApproveOverdueLeaves)
}

func (j *LeaveJobs) AutoApproveOverdueLeaves(ctx context.Context) error {
	// Only run at midnight (00:00-00:59 UTC)
	if time.Now().UTC().Hour() != 0 {
		return nil
	}

	slog.Info("Cron: Starting auto-approve overdue leaves job")

	result, err := j.leaveService.TriggerAutoApprovalSweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to run auto-approval sweep: %w", err)
	}

	slog.Info("Cron: Auto-approved overdue leaves",
		"processed", result.Processed,
		"approved", result.Approved,
		"skipped", result.Skipped,
		"errors", result.Errors)
	return nil
}
