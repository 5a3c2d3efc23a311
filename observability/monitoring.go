package observability

import (
	"context"
	"log/slog"
	"maps"
	"runtime"
	"space-chat/domain/event"
	"sync"
	"sync/atomic"
	"time"
)

var _ event.Recorder = (*MonitoringManager)(nil)

// ChannelUsage is the last sample of a monitored channel.
type ChannelUsage struct {
	Length   int `json:"length"`
	Capacity int `json:"capacity"`
}

// MonitoringStats aggregates every figure exposed on /healthz and the debug page.
type MonitoringStats struct {
	StartedAt       time.Time               `json:"started_at"`
	Uptime          string                  `json:"uptime"`
	WorkerRestarts  uint64                  `json:"worker_restarts"`
	SessionsEvicted uint64                  `json:"sessions_evicted"`
	LiveSessions    int                     `json:"live_sessions"`
	LoadedRooms     int                     `json:"loaded_rooms"`
	Channels        map[string]ChannelUsage `json:"channels"`

	// --- PROCESS METRICS ---
	CpuPercent  float64 `json:"cpu_percent"`
	RssMb       uint64  `json:"rss_mb"`
	Goroutines  int     `json:"goroutines"`
	AllocMemMb  uint64  `json:"alloc_mem_mb"`
	NumGC       uint32  `json:"num_gc"`
	LastRefresh string  `json:"last_refresh"`
}

// Gauges reads live figures owned by the runtime.
type Gauges interface {
	LiveSessions() int
	LoadedRooms() int
}

// MonitoringManager keeps real-time telemetry fed by the telemetry handlers.
// Counters are atomic, the rest is guarded by mu.
type MonitoringManager struct {
	log             *slog.Logger
	refreshInterval time.Duration
	startedAt       time.Time
	gauges          Gauges

	workerRestarts  atomic.Uint64
	sessionsEvicted atomic.Uint64

	mu          sync.RWMutex
	latestStats MonitoringStats
}

func NewMonitoringManager(log *slog.Logger, refreshInterval time.Duration) *MonitoringManager {
	now := time.Now().UTC()
	return &MonitoringManager{
		log:             log,
		refreshInterval: refreshInterval,
		startedAt:       now,
		latestStats: MonitoringStats{
			StartedAt: now,
			Channels:  make(map[string]ChannelUsage),
		},
	}
}

// WithGauges plugs the runtime figures sampled on every refresh.
func (mm *MonitoringManager) WithGauges(gauges Gauges) *MonitoringManager {
	mm.gauges = gauges
	return mm
}

func (mm *MonitoringManager) IncrWorkerRestarts() { mm.workerRestarts.Add(1) }

func (mm *MonitoringManager) IncrSessionsEvicted() { mm.sessionsEvicted.Add(1) }

func (mm *MonitoringManager) RecordChannel(name string, length, capacity int) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.latestStats.Channels[name] = ChannelUsage{Length: length, Capacity: capacity}
}

func (mm *MonitoringManager) RecordProcess(cpu float64, rss uint64, goroutines int) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.latestStats.CpuPercent = cpu
	mm.latestStats.RssMb = rss / 1024 / 1024
	mm.latestStats.Goroutines = goroutines
}

// Run refreshes the Go runtime figures until ctx is done.
func (mm *MonitoringManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(mm.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			mm.log.Info("Monitoring manager stopped")
			return nil
		case <-ticker.C:
			mm.updateStats()
		}
	}
}

func (mm *MonitoringManager) updateStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.latestStats.AllocMemMb = m.Alloc / 1024 / 1024
	mm.latestStats.NumGC = m.NumGC
	mm.latestStats.LastRefresh = time.Now().Format("15:04:05")

	mm.log.Debug("Stats updated",
		"worker_restarts", mm.workerRestarts.Load(),
		"sessions_evicted", mm.sessionsEvicted.Load(),
		"mem_mb", mm.latestStats.AllocMemMb,
	)
}

// GetLatest returns a copy, safe to encode while handlers keep recording.
func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	stats := mm.latestStats
	stats.Channels = maps.Clone(mm.latestStats.Channels)
	mm.mu.RUnlock()

	stats.WorkerRestarts = mm.workerRestarts.Load()
	stats.SessionsEvicted = mm.sessionsEvicted.Load()
	stats.Uptime = time.Since(mm.startedAt).Truncate(time.Second).String()
	if mm.gauges != nil {
		stats.LiveSessions = mm.gauges.LiveSessions()
		stats.LoadedRooms = mm.gauges.LoadedRooms()
	}
	return stats
}
