package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"threewloc-backend/internal/app"
	"threewloc-backend/internal/config"
	"threewloc-backend/internal/jobs"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'verify-pending-payments', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting 3W-LOC Cronjob Runner...", "log_level", cfg.Log.Level)
	if cfg.Payments.Sandbox.Enabled {
		logger.Warn("Sandbox charges live in the API server process; run jobs in process instead")
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := app.Ping(context.Background(), db); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Services
	a, err := app.New(context.Background(), cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer a.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(a.JobServices(), cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			a.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once. It reports false for unknown names.
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "verify-pending-payments":
		jobRunner.VerifyPendingPayments()
	case "retry-failed-refunds":
		jobRunner.RetryFailedRefunds()
	case "expire-unpaid-bookings":
		jobRunner.ExpireUnpaidBookings()
	case "reconcile-wallets":
		jobRunner.ReconcileWallets()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - verify-pending-payments\n")
		fmt.Printf("  - retry-failed-refunds\n")
		fmt.Printf("  - expire-unpaid-bookings\n")
		fmt.Printf("  - reconcile-wallets\n")
		fmt.Printf("  - all\n")
		return false
	}
	return true
}
