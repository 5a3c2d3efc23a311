package workers

import (
	"context"
	"fmt"
	"log/slog"
	"space-chat/contract"
	"space-chat/domain/event"
	"time"

	"github.com/sourcegraph/conc"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout broadcasts dispatched domain events to permanent in-process consumers
// (search index, external bridge).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. EventFanout is not a message broker: live sessions are
// served by the dispatcher, never by this worker.
//
// Each event is handed to every sink concurrently, each sink bounded by sinkTimeout.
// The next event is read only once every sink returned, so a sink sees events in
// dispatch order.
type EventFanout struct {
	log         *slog.Logger
	domainEvent chan event.DomainEvent
	sinkTimeout time.Duration
	sinks       []contract.EventSink
}

func NewEventFanout(log *slog.Logger, domainEvent chan event.DomainEvent, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{log: log, domainEvent: domainEvent, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domainEvent:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping domain event fanout")
			return nil
		}
	}
}

// Fanout One sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var wg conc.WaitGroup
	for _, sink := range w.sinks {
		wg.Go(func() {
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.log.Warn("Sink failed to consume event",
					"sink", fmt.Sprintf("%T", sink), "kind", evt.Kind(), "topic", evt.Topic(), "error", err)
			}
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		w.log.Error("Sink panicked", "kind", evt.Kind(), "panic", r.Value)
	}
}
