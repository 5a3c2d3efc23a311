package event

import (
	"space-chat/domain"
	"time"
)

// Type identifies a technical (telemetry) event.
// Technical events never reach clients.
type Type string

const (
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
	ChannelCapacityType     Type = "CHANNEL_CAPACITY"
	ProcessStatsType        Type = "PROCESS_STATS"
	SessionEvictedType      Type = "SESSION_EVICTED"
)

type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

func NewEvent(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}

type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
}

type ProcessStats struct {
	PID        int32
	Status     string
	Cpu        float64
	Rss        uint64
	Goroutines int
}

type SessionEvicted struct {
	SessionID     domain.SessionID
	ParticipantID domain.ParticipantID
	Reason        string
}
