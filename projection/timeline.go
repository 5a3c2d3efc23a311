// Package projection builds local timelines from observed events.
// Handles ordering, deduplication, and projections.
// Does not emit events or interact with UI directly.
package projection

import (
	"cmp"
	"slices"
	"space-chat/domain"
	"space-chat/domain/event"
	"time"
)

// Timeline holds the local view of one room, as a client renders it.
// Events may arrive twice (snapshot then live) or after a history page:
// applying the same transition again changes nothing.
type Timeline struct {
	RoomID   string
	messages map[string]event.MessageView
	applied  map[transition]struct{}
	lastSeq  uint64
}

type transition struct {
	messageID string
	kind      event.Kind
	at        time.Time
}

func NewTimeline(roomID string) *Timeline {
	return &Timeline{
		RoomID:   roomID,
		messages: make(map[string]event.MessageView),
		applied:  make(map[transition]struct{}),
	}
}

// Apply folds a message envelope of the room into the timeline.
// It reports whether the visible timeline changed.
func (t *Timeline) Apply(e event.Envelope) (bool, error) {
	switch e.Kind {
	case event.MessageSentKind, event.MessageEditedKind, event.MessageDeletedKind:
	default:
		return false, nil
	}
	view, err := e.DecodeMessage()
	if err != nil {
		return false, err
	}
	if view.RoomID != t.RoomID {
		return false, nil
	}
	return t.apply(e.Kind, view), nil
}

// Load merges a history page, ordered or not.
func (t *Timeline) Load(views []event.MessageView) {
	for _, view := range views {
		t.apply(kindOf(view), view)
	}
}

func (t *Timeline) apply(kind event.Kind, view event.MessageView) bool {
	key := transition{messageID: view.ID, kind: kind, at: transitionTime(kind, view)}
	if _, ok := t.applied[key]; ok {
		return false
	}
	t.applied[key] = struct{}{}
	t.lastSeq = max(t.lastSeq, view.Seq)

	current, ok := t.messages[view.ID]
	switch {
	case !ok:
		t.messages[view.ID] = view
		return true
	case current.State == string(domain.MessageDeleted):
		// Delete is terminal
		return false
	case kind == event.MessageDeletedKind:
		t.messages[view.ID] = view
		return true
	case kind == event.MessageEditedKind && isNewerEdit(view, current):
		t.messages[view.ID] = view
		return true
	}
	return false
}

func isNewerEdit(candidate, current event.MessageView) bool {
	if current.EditedAt == nil {
		return true
	}
	return candidate.EditedAt != nil && candidate.EditedAt.After(*current.EditedAt)
}

func kindOf(view event.MessageView) event.Kind {
	switch domain.MessageState(view.State) {
	case domain.MessageDeleted:
		return event.MessageDeletedKind
	case domain.MessageEdited:
		return event.MessageEditedKind
	default:
		return event.MessageSentKind
	}
}

func transitionTime(kind event.Kind, view event.MessageView) time.Time {
	switch {
	case kind == event.MessageEditedKind && view.EditedAt != nil:
		return *view.EditedAt
	case kind == event.MessageDeletedKind && view.DeletedAt != nil:
		return *view.DeletedAt
	}
	return time.Time{}
}

// Messages returns the timeline in ledger order.
func (t *Timeline) Messages() []event.MessageView {
	messages := make([]event.MessageView, 0, len(t.messages))
	for _, m := range t.messages {
		messages = append(messages, m)
	}
	slices.SortFunc(messages, func(a, b event.MessageView) int { return cmp.Compare(a.Seq, b.Seq) })
	return messages
}

func (t *Timeline) LastSeq() uint64 { return t.lastSeq }

// Missing lists the seqs below LastSeq never observed, to be fetched with a history request.
func (t *Timeline) Missing() []uint64 {
	seen := make(map[uint64]struct{}, len(t.messages))
	for _, m := range t.messages {
		seen[m.Seq] = struct{}{}
	}
	var missing []uint64
	for seq := uint64(1); seq <= t.lastSeq; seq++ {
		if _, ok := seen[seq]; !ok {
			missing = append(missing, seq)
		}
	}
	return missing
}
