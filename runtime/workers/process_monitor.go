package workers

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"space-chat/contract"
	"space-chat/domain/event"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*ProcessMonitorWorker)(nil)

// ProcessMonitorWorker samples the server's own process (CPU, RSS, goroutines)
// and reports it as a telemetry event.
type ProcessMonitorWorker struct {
	log            *slog.Logger
	telemetryChan  chan event.Event
	metricInterval time.Duration
}

func NewProcessMonitorWorker(log *slog.Logger, telemetryChan chan event.Event, metricInterval time.Duration) *ProcessMonitorWorker {
	return &ProcessMonitorWorker{
		log:            log,
		telemetryChan:  telemetryChan,
		metricInterval: metricInterval,
	}
}

func (w *ProcessMonitorWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping process monitoring")
			return nil
		case <-ticker.C:
			stats, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			select {
			case w.telemetryChan <- event.NewEvent(event.ProcessStatsType, stats):
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		}
	}
}

func selfStats(p *process.Process) (event.ProcessStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return event.ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return event.ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return event.ProcessStats{}, err
	}
	return event.ProcessStats{
		PID:        p.Pid,
		Status:     status,
		Cpu:        cpuPercent,
		Rss:        memInfo.RSS,
		Goroutines: goruntime.NumGoroutine(),
	}, nil
}
