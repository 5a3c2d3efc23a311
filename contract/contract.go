//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"space-chat/domain"
	"space-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Spawn(worker Worker) error
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink must not block: a slow sink returns an error instead.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Subscriber is a live session as seen by the fanout path.
type Subscriber interface {
	EventSink
	ID() domain.SessionID
	ParticipantID() domain.ParticipantID
	Close()
}

// IRegistry maps topics to subscribers. Reads happen on every dispatch,
// writes only on session lifecycle and membership changes.
type IRegistry interface {
	Register(s Subscriber)
	Remove(id domain.SessionID) (Subscriber, bool)
	Get(id domain.SessionID) (Subscriber, bool)
	SubscribeParticipant(p domain.ParticipantID, topic event.Topic)
	UnsubscribeParticipant(p domain.ParticipantID, topic event.Topic)
	Subscribers(topic event.Topic) []Subscriber
	SetViewing(id domain.SessionID, roomID domain.RoomID, viewing bool) error
	ClearViewing(p domain.ParticipantID, roomID domain.RoomID)
	IsViewing(roomID domain.RoomID, p domain.ParticipantID) bool
	All() []Subscriber
}

type IDispatcher interface {
	Publish(ctx context.Context, roomID domain.RoomID, e event.DomainEvent)
	PublishToParticipant(ctx context.Context, p domain.ParticipantID, e event.DomainEvent)
}
