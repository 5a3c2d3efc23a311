// Package testkit builds a fully wired orchestrator on temporary storage for transport and service tests.
package testkit

import (
	"context"
	"log/slog"
	"space-chat/domain/event"
	"space-chat/repositories"
	"space-chat/runtime"
	"space-chat/runtime/workers"
	"space-chat/sink"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func Options() runtime.Options {
	return runtime.Options{
		MaxContentLength:    2000,
		HistoryPageSize:     10,
		RoomIdleTimeout:     time.Minute,
		SessionBufferSize:   256,
		SinkTimeout:         100 * time.Millisecond,
		BufferSize:          256,
		RecentNotifications: 10,
	}
}

// NewOrchestrator starts an orchestrator with its search sink, stopped on test cleanup.
func NewOrchestrator(t testing.TB, opts runtime.Options) *runtime.Orchestrator {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	telemetry := make(chan event.Event, 64)
	supervisor := workers.NewSupervisor(log, telemetry, 10*time.Millisecond)
	repos := repositories.NewRepositories(db, writer, log, 100)
	orchestrator := runtime.NewOrchestrator(log, supervisor, runtime.NewRegistry(), repos, telemetry, opts)
	orchestrator.Add(sink.NewSearchSink(repos.Index, log))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orchestrator.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return orchestrator
}
