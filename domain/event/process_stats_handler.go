package event

import (
	"fmt"
	"log/slog"
	"space-chat/errors"
)

type ProcessStatsHandler struct {
	log      *slog.Logger
	recorder Recorder
}

func NewProcessStatsHandler(log *slog.Logger, recorder Recorder) *ProcessStatsHandler {
	return &ProcessStatsHandler{log: log, recorder: recorder}
}

func (h ProcessStatsHandler) Handle(event Event) {
	switch event.Type {
	case ProcessStatsType:
		payload, ok := event.Payload.(ProcessStats)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.recorder.RecordProcess(payload.Cpu, payload.Rss, payload.Goroutines)
		h.log.Debug(fmt.Sprintf("PID %d | STATUS %s | CPU %.2f%% | RSS %d MB | GOROUTINES %d",
			payload.PID, payload.Status, payload.Cpu, payload.Rss/1024/1024, payload.Goroutines))
	}
}

// SessionEvictedHandler counts sessions dropped for being too slow.
type SessionEvictedHandler struct {
	log      *slog.Logger
	recorder Recorder
}

func NewSessionEvictedHandler(log *slog.Logger, recorder Recorder) *SessionEvictedHandler {
	return &SessionEvictedHandler{log: log, recorder: recorder}
}

func (h SessionEvictedHandler) Handle(event Event) {
	switch event.Type {
	case SessionEvictedType:
		payload, ok := event.Payload.(SessionEvicted)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.recorder.IncrSessionsEvicted()
		h.log.Info("Session evicted",
			"session", payload.SessionID, "participant", payload.ParticipantID, "reason", payload.Reason)
	}
}
