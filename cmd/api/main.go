package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/leavehq/leave-backend-go/internal/config"
	appHTTP "github.com/leavehq/leave-backend-go/internal/handler/http"
	calendarsyncPkg "github.com/leavehq/leave-backend-go/internal/pkg/calendarsync"
	"github.com/leavehq/leave-backend-go/internal/pkg/cron"
	"github.com/leavehq/leave-backend-go/internal/pkg/database"
	"github.com/leavehq/leave-backend-go/internal/pkg/email"
	"github.com/leavehq/leave-backend-go/internal/pkg/jwt"
	"github.com/leavehq/leave-backend-go/internal/repository/postgresql"
	leaveService "github.com/leavehq/leave-backend-go/internal/service/leave"
)

// autoApprovalFlag adapts the static config value to the sweep's gate.
type autoApprovalFlag struct {
	enabled bool
}

func (f autoApprovalFlag) Enabled() bool { return f.enabled }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	leaveBalanceRepo := postgresql.NewBalanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	txManager := postgresql.NewTxManager(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	dispatcher, err := email.NewDispatcher(cfg.SMTP)
	if err != nil {
		log.Fatal("Failed to initialize email dispatcher:", err)
	}
	calendarAdapter := calendarsyncPkg.NewWebhookAdapter(cfg.CalendarSync)

	ledger := leaveService.NewLedgerService(leaveBalanceRepo)
	requestService := leaveService.NewRequestService(leaveRequestRepo, employeeRepo, holidayRepo, ledger)
	svc := leaveService.NewLeaveService(
		txManager,
		leaveRequestRepo,
		employeeRepo,
		requestService,
		ledger,
		dispatcher,
		calendarAdapter,
		autoApprovalFlag{enabled: cfg.AutoApproval.Enabled},
	)

	leaveHandler := appHTTP.NewLeaveHandler(svc)
	router := appHTTP.NewRouter(cfg, jwtService, leaveHandler)

	scheduler := cron.NewScheduler()
	cron.NewLeaveJobs(svc).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{Addr: port, Handler: router}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Println("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	_ = server.Close()
}
