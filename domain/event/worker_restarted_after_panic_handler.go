package event

import (
	"log/slog"
	"space-chat/errors"
)

// WorkerRestartedAfterPanicHandler handles events when a worker panics and is restarted.
// It is triggered by the Supervisor when a worker recovers from a panic,
// room workers included.
type WorkerRestartedAfterPanicHandler struct {
	log      *slog.Logger
	recorder Recorder
}

func NewWorkerRestartedAfterPanicHandler(log *slog.Logger, recorder Recorder) *WorkerRestartedAfterPanicHandler {
	return &WorkerRestartedAfterPanicHandler{log: log, recorder: recorder}
}

func (h *WorkerRestartedAfterPanicHandler) Handle(event Event) {
	switch event.Type {
	case RestartedAfterPanicType:
		payload, ok := event.Payload.(WorkerRestartedAfterPanic)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.recorder.IncrWorkerRestarts()
		h.log.Warn("Worker restarted after panic", "worker", payload.WorkerName, "at", event.CreatedAt)
	}
}
