package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	httpapi "threewloc-backend/internal/api/http"
	"threewloc-backend/internal/app"
	"threewloc-backend/internal/config"
	"threewloc-backend/internal/jobs"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting 3W-LOC backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := app.Ping(ctx, db); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Services
	a, err := app.New(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer a.Close()

	deps := httpapi.Deps{
		Bookings:        a.Bookings,
		Payments:        a.Payments,
		Wallets:         a.Wallets,
		Availability:    a.Availability,
		Notifications:   a.Notifications,
		Tokens:          a.Tokens,
		DefaultProvider: cfg.Payments.DefaultProvider,
	}
	if a.Sandbox != nil {
		deps.Sandbox = a.Sandbox
	}

	// Jobs run here only when configured; production uses cmd/cronjob.
	if cfg.Scheduler.InProcess {
		cronScheduler := scheduler.NewScheduler(jobs.NewJobRunner(a.JobServices(), cfg))
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	// Set up gRPC ops server: health and reflection only
	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		go func() {
			logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	fmt.Println("Goodbye!")
}
