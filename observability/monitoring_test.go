package observability

import (
	"context"
	"log/slog"
	"space-chat/domain/event"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fixedGauges struct{ sessions, rooms int }

func (g fixedGauges) LiveSessions() int { return g.sessions }
func (g fixedGauges) LoadedRooms() int  { return g.rooms }

func TestMonitoringManager_Records_Telemetry_Handlers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mm := NewMonitoringManager(log, time.Second).WithGauges(fixedGauges{sessions: 3, rooms: 2})
	handlers := []event.Handler{
		event.NewWorkerRestartedAfterPanicHandler(log, mm),
		event.NewSessionEvictedHandler(log, mm),
		event.NewChannelCapacityHandler(log, mm, 10),
		event.NewProcessStatsHandler(log, mm),
	}

	// When the telemetry worker dispatches technical events
	for _, e := range []event.Event{
		event.NewEvent(event.RestartedAfterPanicType, event.WorkerRestartedAfterPanic{WorkerName: "RoomWorker"}),
		event.NewEvent(event.SessionEvictedType, event.SessionEvicted{SessionID: "s1", ParticipantID: "alice"}),
		event.NewEvent(event.SessionEvictedType, event.SessionEvicted{SessionID: "s2", ParticipantID: "bob"}),
		event.NewEvent(event.ChannelCapacityType, event.ChannelCapacity{ChannelName: "domain_events", Capacity: 100, Length: 95}),
		event.NewEvent(event.ProcessStatsType, event.ProcessStats{Cpu: 12.5, Rss: 64 << 20, Goroutines: 42}),
	} {
		for _, h := range handlers {
			h.Handle(e)
		}
	}

	// Then the latest stats reflect them
	stats := mm.GetLatest()
	req.Equal(uint64(1), stats.WorkerRestarts)
	req.Equal(uint64(2), stats.SessionsEvicted)
	req.Equal(ChannelUsage{Length: 95, Capacity: 100}, stats.Channels["domain_events"])
	req.Equal(12.5, stats.CpuPercent)
	req.Equal(uint64(64), stats.RssMb)
	req.Equal(42, stats.Goroutines)
	req.Equal(3, stats.LiveSessions)
	req.Equal(2, stats.LoadedRooms)

	// And the returned map is a copy
	stats.Channels["domain_events"] = ChannelUsage{}
	req.Equal(95, mm.GetLatest().Channels["domain_events"].Length)
}

func TestMonitoringManager_Run_Refreshes_Runtime_Stats(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelInfo), 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mm.Run(ctx) }()

	req.Eventually(func() bool { return mm.GetLatest().LastRefresh != "" }, time.Second, 5*time.Millisecond)

	cancel()
	req.NoError(<-done)
}
