package runtime

import (
	"context"
	"log/slog"
	"space-chat/contract"
	"space-chat/domain"
	"space-chat/domain/event"
)

var _ contract.IDispatcher = (*Dispatcher)(nil)

// Dispatcher delivers events to the live sessions of a topic.
//
// Delivery is a non-blocking offer: a session that cannot take the event is
// evicted, the originating command never fails because of a subscriber.
// Room events are published from inside the room's worker, so sessions observe
// them in ledger order. Permanent sinks get the same offer: when the fanout
// channel is full the event is dropped for them and reported as telemetry.
type Dispatcher struct {
	log           *slog.Logger
	registry      contract.IRegistry
	telemetryChan chan event.Event
	fanoutChan    chan event.DomainEvent
}

func NewDispatcher(log *slog.Logger, registry contract.IRegistry,
	telemetryChan chan event.Event, fanoutChan chan event.DomainEvent) *Dispatcher {
	return &Dispatcher{
		log:           log,
		registry:      registry,
		telemetryChan: telemetryChan,
		fanoutChan:    fanoutChan,
	}
}

func (d *Dispatcher) Publish(ctx context.Context, roomID domain.RoomID, e event.DomainEvent) {
	d.deliver(ctx, event.RoomTopic(roomID), e)
}

func (d *Dispatcher) PublishToParticipant(ctx context.Context, p domain.ParticipantID, e event.DomainEvent) {
	d.deliver(ctx, event.ParticipantTopic(p), e)
}

func (d *Dispatcher) deliver(ctx context.Context, topic event.Topic, e event.DomainEvent) {
	for _, s := range d.registry.Subscribers(topic) {
		if err := s.Consume(ctx, e); err != nil {
			d.evict(s, err)
		}
	}
	d.forward(e)
}

func (d *Dispatcher) evict(s contract.Subscriber, reason error) {
	if _, ok := d.registry.Remove(s.ID()); !ok {
		return
	}
	s.Close()
	d.log.Warn("Session evicted", "session", s.ID(), "participant", s.ParticipantID(), "reason", reason)
	d.report(event.NewEvent(event.SessionEvictedType, event.SessionEvicted{
		SessionID:     s.ID(),
		ParticipantID: s.ParticipantID(),
		Reason:        reason.Error(),
	}))
}

// forward offers the event to the permanent sinks without waiting.
func (d *Dispatcher) forward(e event.DomainEvent) {
	if d.fanoutChan == nil {
		return
	}
	select {
	case d.fanoutChan <- e:
		return
	default:
	}
	d.log.Warn("Fanout channel full, event not forwarded", "kind", e.Kind(), "topic", e.Topic())
	d.report(event.NewEvent(event.ChannelCapacityType, event.ChannelCapacity{
		ChannelName: "domain_events",
		Capacity:    cap(d.fanoutChan),
		Length:      len(d.fanoutChan),
	}))
}

func (d *Dispatcher) report(evt event.Event) {
	if d.telemetryChan == nil {
		return
	}
	select {
	case d.telemetryChan <- evt:
	default:
		d.log.Debug("Observability telemetry event lost")
	}
}
