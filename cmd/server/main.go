package main

import (
	"bounty-lab/auth"
	grpc2 "bounty-lab/infrastructure/grpc"
	"bounty-lab/infrastructure/httpapi"
	"bounty-lab/infrastructure/ws"
	"bounty-lab/internal"
	"bounty-lab/observability"
	"bounty-lab/projection"
	"bounty-lab/repositories"
	"bounty-lab/runtime"
	"bounty-lab/runtime/workers"
	"bounty-lab/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves until a signal arrives, then shuts down in reverse order.
// Returning instead of exiting lets the deferred badger close run.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env file is fine, the environment may already be populated.
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Ledger mirror storage (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, LedgerMapper)
	}

	// 3. Restore the ledger from its mirror
	metrics := observability.NewMetrics()
	ledger := projection.NewLedger(config.ShardCount)
	ledgerRepository := repositories.NewLedgerRepository(db, logger)
	books, err := ledgerRepository.LoadBooks()
	if err != nil {
		return exitRuntime, fmt.Errorf("ledger mirror loading failed: %w", err)
	}
	if err := ledger.Restore(books); err != nil {
		return exitRuntime, fmt.Errorf("ledger restore failed: %w", err)
	}
	logger.Info("Ledger restored", "rooms", len(books))
	mirror := workers.NewLedgerMirrorWorker(logger, ledger, ledgerRepository, metrics, config.MirrorInterval)
	mirror.MarkSaved(books)

	// 4. Room session core
	registry := runtime.NewRegistry(config.ShardCount)
	connections := runtime.NewConnectionTable(config.ShardCount)
	fanout := workers.NewEventFanout(logger, registry, connections, metrics, config.BufferSize,
		config.FanoutLanes, config.DeliveryTimeout)
	coordinator := runtime.NewCoordinator(logger, registry, ledger, fanout, connections, metrics,
		config.DefaultTimeLimitMinutes, config.ShardCount)
	roomService := services.NewRoomService(logger, coordinator)

	// Bind before any goroutine starts so a busy port fails fast
	address := fmt.Sprintf("0.0.0.0:%d", config.GRPCPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	// 5. Supervised workers
	monitoring := observability.NewMonitoringManager(logger, metrics)
	limiter := ws.NewRateLimiter(config.RateLimitPerIP)
	sup := workers.NewSupervisor(logger).WithRestartDelay(config.RestartInterval)
	sup.Add(
		fanout,
		mirror,
		limiter,
		workers.NewHealthMonitoringWorker(logger, monitoring, coordinator.ConnectionCount, config.MetricInterval),
		workers.NewQueueCapacityWorker(logger, metrics,
			[]workers.NamedQueue{{Name: "fanout", Queue: fanout}},
			config.QueueWarnPercent, config.MetricInterval),
	)
	// Workers outlive the signal context so the mirror flushes after the last accepted deposit.
	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(context.Background())
	}()

	errChan := make(chan error, 2)

	// 6. HTTP server: collaborator API, public reads, viewer socket, probes
	socket := ws.NewServer(logger, roomService, limiter, config.ConnectionBufferSize, config.MaxMessageSize)
	handler := httpapi.NewHandler(logger, roomService, monitoring)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", config.HTTPPort),
		Handler:           httpapi.NewRouter(logger, handler, metrics, auth.NewTokenIssuer(config.CollaboratorSecret), socket),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. gRPC health server
	grpcServer, healthServer := grpc2.NewServer(logger)
	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	exitCode, runErr := exitOK, error(nil)
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		exitCode = exitRuntime
		stop()
	}

	// 9. Graceful shutdown: stop intake, then drain workers, then close storage (deferred)
	logger.Info("Shutting down gracefully...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	grpcServer.GracefulStop()
	sup.Stop()
	<-supDone
	logger.Info("Program stopped cleanly")

	return exitCode, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// LedgerMapper renders mirror records in the debug inspector.
func LedgerMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	kind, detail, err := repositories.DescribeRecord(key, val)
	if err != nil {
		row.Detail = "Error: " + err.Error()
		return row
	}
	row.Type = kind
	row.Detail = detail
	return row
}
