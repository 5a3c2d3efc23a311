package event

import (
	"fmt"
	"space-chat/errors"

	"github.com/goccy/go-json"
)

type FrameType string

const (
	EventFrame    FrameType = "event"
	SnapshotFrame FrameType = "snapshot"
	ReplyFrame    FrameType = "reply"
)

// Envelope is the wire frame of a DomainEvent.
type Envelope struct {
	Type    FrameType       `json:"type"`
	Topic   Topic           `json:"topic"`
	Kind    Kind            `json:"kind"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(e DomainEvent) (Envelope, error) {
	payload, err := toPayload(e)
	if err != nil {
		return Envelope{}, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", e.Kind(), err)
	}
	return Envelope{Type: EventFrame, Topic: e.Topic(), Kind: e.Kind(), Seq: e.Seq(), Payload: raw}, nil
}

// Encode marshals the envelope of e.
func Encode(e DomainEvent) ([]byte, error) {
	envelope, err := NewEnvelope(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope)
}

func toPayload(e DomainEvent) (any, error) {
	switch evt := e.(type) {
	case MessageSent:
		return ToMessageView(evt.Message), nil
	case MessageEdited:
		return ToMessageView(evt.Message), nil
	case MessageDeleted:
		return ToMessageView(evt.Message), nil
	case ParticipantJoined:
		return MembershipView{RoomID: string(evt.Room), ParticipantID: string(evt.Participant), LastSeq: evt.LastSeq, At: evt.At}, nil
	case ParticipantLeft:
		return MembershipView{RoomID: string(evt.Room), ParticipantID: string(evt.Participant), LastSeq: evt.LastSeq, At: evt.At}, nil
	case RoomCreated:
		return ToRoomView(evt.Room), nil
	case RoomAdded:
		return ToRoomView(evt.Room), nil
	case UnreadUpdated:
		return ToUnreadView(evt.Cursor, evt.LastMessage), nil
	case NotificationPublished:
		return ToNotificationView(evt.Notification), nil
	case NotificationRead:
		return ToNotificationView(evt.Notification), nil
	default:
		return nil, fmt.Errorf("event %T: %w", e, errors.ErrInvalidPayload)
	}
}

// DecodeMessage reads the payload of a message event.
func (e Envelope) DecodeMessage() (MessageView, error) {
	var view MessageView
	switch e.Kind {
	case MessageSentKind, MessageEditedKind, MessageDeletedKind:
	default:
		return view, fmt.Errorf("kind %s: %w", e.Kind, errors.ErrInvalidPayload)
	}
	err := json.Unmarshal(e.Payload, &view)
	return view, err
}

// DecodePayload reads the payload of any envelope into T.
func DecodePayload[T any](e Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return payload, fmt.Errorf("kind %s: %v: %w", e.Kind, err, errors.ErrInvalidPayload)
	}
	return payload, nil
}
