package event

import (
	"fmt"
	"log/slog"
	"space-chat/errors"
)

// ChannelCapacityHandler handles events reporting the capacity of channels.
// It is triggered to monitor the length and max capacity of internal channels.
// Useful for observability, detecting backpressure on the fanout path.
type ChannelCapacityHandler struct {
	log                  *slog.Logger
	recorder             Recorder
	lowCapacityThreshold int
}

func NewChannelCapacityHandler(log *slog.Logger, recorder Recorder, lowCapacityThreshold int) *ChannelCapacityHandler {
	return &ChannelCapacityHandler{log: log, recorder: recorder, lowCapacityThreshold: lowCapacityThreshold}
}

func (h ChannelCapacityHandler) Handle(event Event) {
	switch event.Type {
	case ChannelCapacityType:
		payload, ok := event.Payload.(ChannelCapacity)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.recorder.RecordChannel(payload.ChannelName, payload.Length, payload.Capacity)
		h.log.Debug(fmt.Sprintf("Channel %s usage: %d / %d", payload.ChannelName, payload.Length, payload.Capacity))
		if payload.Capacity <= 0 {
			// In case of unbuffered channel
			return
		}
		capacityLeft := payload.Capacity - payload.Length
		if capacityLeft <= h.lowCapacityThreshold {
			h.log.Warn("Channel close to saturation", "channel", payload.ChannelName, "capacity_left", capacityLeft)
		}
	}
}
