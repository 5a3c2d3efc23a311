package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"space-chat/auth"
	"space-chat/domain/event"
	"space-chat/infrastructure/grpc/server"
	"space-chat/infrastructure/ws"
	"space-chat/internal"
	"space-chat/observability"
	"space-chat/repositories"
	"space-chat/runtime"
	"space-chat/runtime/workers"
	"space-chat/services"
	"space-chat/sink"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, serves until a signal arrives, and lets every defer run before exiting.
func run() (int, error) {
	// 1. Configuration & Logger
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB ledger + Bluge search index)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Supervision & Orchestration
	telemetryChan := make(chan event.Event, config.BufferSize)
	sup := workers.NewSupervisor(logger, telemetryChan, config.RestartInterval)
	registry := runtime.NewRegistry()
	repos := repositories.NewRepositories(db, blugeWriter, logger, config.LimitMessages)
	orchestrator := runtime.NewOrchestrator(logger, sup, registry, repos, telemetryChan, config.RuntimeOptions())
	orchestrator.Add(sink.NewSearchSink(repos.Index, logger))

	if config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			return exitRuntime, fmt.Errorf("redis unreachable at %s: %w", config.RedisAddr, err)
		}
		logger.Info("Bridging events to Redis", "address", config.RedisAddr, "prefix", config.RedisChannelPrefix)
		orchestrator.Add(sink.NewRedisSink(client, config.RedisChannelPrefix, logger))
	}

	// 4. Observability workers, supervised next to the fanout
	monitoring := observability.NewMonitoringManager(logger, config.MetricInterval).WithGauges(orchestrator)
	handlers := []event.Handler{
		event.NewChannelCapacityHandler(logger, monitoring, config.LowCapacityThreshold),
		event.NewProcessStatsHandler(logger, monitoring),
		event.NewSessionEvictedHandler(logger, monitoring),
		event.NewWorkerRestartedAfterPanicHandler(logger, monitoring),
	}
	channels := []workers.NamedChannel{
		{Name: "telemetry", Channel: telemetryChan},
		{Name: "domain_events", Channel: orchestrator.DomainEvents()},
	}
	sup.Add(
		workers.NewTelemetryWorker(logger, telemetryChan, handlers),
		workers.NewChannelCapacityWorker(logger, channels, telemetryChan, config.MetricInterval).
			WithProvider(sessionQueues(orchestrator)),
		workers.NewProcessMonitorWorker(logger, telemetryChan, config.MetricInterval),
		monitoring,
	)

	if config.DebugPort != 0 {
		endpoint := "/inspect"
		debugServer := internal.StartDebugServer(logger, db, config.DebugPort, endpoint, internal.KeyspaceMapper, statsOf(monitoring))
		defer internal.ShutdownDebugServer(debugServer)
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
	}

	// 5. Transports
	tokens := auth.NewTokenIssuer(config.JWTSecret)
	grpcServer, healthServer := server.NewGRPCServer(logger, tokens, services.NewProvisioningService(orchestrator))
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GRPCPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}

	handler := ws.NewHandler(logger, services.NewChatService(orchestrator), tokens, config.WebSocket())
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.HTTPPort),
		Handler:           ws.NewRouter(logger, handler, monitoring),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Run everything, the first failure cancels the others
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting orchestrator...")
		return orchestrator.Start(gctx)
	})
	g.Go(func() error {
		logger.Info("Starting gRPC server", "address", grpcAddress)
		for serviceName := range grpcServer.GetServiceInfo() {
			logger.Debug("📡 gRPC exposed services", "name", serviceName)
		}
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting websocket server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.WriteWait)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		orchestrator.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}

// sessionQueues exposes every live session outbound queue to the capacity sampler.
func sessionQueues(o *runtime.Orchestrator) func() []workers.NamedChannel {
	return func() []workers.NamedChannel {
		var channels []workers.NamedChannel
		for _, s := range o.Sessions() {
			session, ok := s.(*runtime.Session)
			if !ok {
				continue
			}
			channels = append(channels, workers.NamedChannel{
				Name:    "session:" + string(session.ID()),
				Channel: session.Events(),
			})
		}
		return channels
	}
}

func statsOf(monitoring *observability.MonitoringManager) internal.StatsProvider {
	return func() map[string]any {
		stats := monitoring.GetLatest()
		return map[string]any{
			"uptime":           stats.Uptime,
			"live sessions":    stats.LiveSessions,
			"loaded rooms":     stats.LoadedRooms,
			"worker restarts":  stats.WorkerRestarts,
			"sessions evicted": stats.SessionsEvicted,
			"goroutines":       stats.Goroutines,
			"rss (MB)":         stats.RssMb,
		}
	}
}
