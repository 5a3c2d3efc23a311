package projection

import (
	"cmp"
	"slices"
	"space-chat/domain/event"
)

// Inbox is the room list and notification badge of one participant.
// It starts from the connection snapshot and follows room and personal events.
type Inbox struct {
	Owner         string
	rooms         map[string]event.RoomView
	unreadNotifs  map[string]struct{}
	notifications []event.NotificationView
	// unread notifications older than the ones listed in the snapshot
	unlisted int
}

func NewInbox(snapshot event.SnapshotView) *Inbox {
	inbox := &Inbox{
		Owner:        snapshot.ParticipantID,
		rooms:        make(map[string]event.RoomView, len(snapshot.Rooms)),
		unreadNotifs: make(map[string]struct{}),
	}
	for _, room := range snapshot.Rooms {
		inbox.rooms[room.RoomID] = room
	}
	for _, n := range snapshot.Notifications {
		inbox.addNotification(n)
	}
	inbox.unlisted = max(0, snapshot.UnreadNotifications-len(inbox.unreadNotifs))
	return inbox
}

// Apply reports whether the inbox changed.
func (i *Inbox) Apply(e event.Envelope) (bool, error) {
	switch e.Kind {
	case event.RoomCreatedKind, event.RoomAddedKind:
		room, err := event.DecodePayload[event.RoomView](e)
		if err != nil {
			return false, err
		}
		if _, ok := i.rooms[room.RoomID]; ok {
			return false, nil
		}
		i.rooms[room.RoomID] = room
		return true, nil

	case event.ParticipantLeftKind:
		membership, err := event.DecodePayload[event.MembershipView](e)
		if err != nil {
			return false, err
		}
		if membership.ParticipantID != i.Owner {
			return false, nil
		}
		_, ok := i.rooms[membership.RoomID]
		delete(i.rooms, membership.RoomID)
		return ok, nil

	case event.UnreadUpdatedKind:
		unread, err := event.DecodePayload[event.UnreadView](e)
		if err != nil {
			return false, err
		}
		room, ok := i.rooms[unread.RoomID]
		if !ok || room.LastReadSeq > unread.LastReadSeq {
			return false, nil
		}
		room.LastReadSeq = unread.LastReadSeq
		room.UnreadCount = unread.UnreadCount
		if unread.LastMessage != nil && unread.LastMessage.Seq >= room.LastSeq {
			room.LastMessage = unread.LastMessage
			room.LastSeq = unread.LastMessage.Seq
		}
		i.rooms[unread.RoomID] = room
		return true, nil

	case event.MessageSentKind:
		msg, err := e.DecodeMessage()
		if err != nil {
			return false, err
		}
		room, ok := i.rooms[msg.RoomID]
		if !ok || msg.Seq <= room.LastSeq {
			return false, nil
		}
		room.LastSeq = msg.Seq
		room.LastMessage = &event.SummaryView{MessageID: msg.ID, Seq: msg.Seq, SenderID: msg.SenderID, Preview: msg.Content, At: msg.CreatedAt}
		i.rooms[msg.RoomID] = room
		return true, nil

	case event.NotificationKind:
		n, err := event.DecodePayload[event.NotificationView](e)
		if err != nil {
			return false, err
		}
		return i.addNotification(n), nil

	case event.NotificationReadKind:
		n, err := event.DecodePayload[event.NotificationView](e)
		if err != nil {
			return false, err
		}
		if _, ok := i.unreadNotifs[n.ID]; ok {
			delete(i.unreadNotifs, n.ID)
			return true, nil
		}
		if i.unlisted > 0 && !slices.ContainsFunc(i.notifications, func(known event.NotificationView) bool { return known.ID == n.ID }) {
			i.unlisted--
			i.notifications = append(i.notifications, n)
			return true, nil
		}
		return false, nil
	}
	return false, nil
}

func (i *Inbox) addNotification(n event.NotificationView) bool {
	if slices.ContainsFunc(i.notifications, func(known event.NotificationView) bool { return known.ID == n.ID }) {
		return false
	}
	i.notifications = append(i.notifications, n)
	if !n.IsRead {
		i.unreadNotifs[n.ID] = struct{}{}
	}
	return true
}

// Rooms returns the most recently active rooms first.
func (i *Inbox) Rooms() []event.RoomView {
	rooms := make([]event.RoomView, 0, len(i.rooms))
	for _, r := range i.rooms {
		rooms = append(rooms, r)
	}
	slices.SortFunc(rooms, func(a, b event.RoomView) int {
		return cmp.Compare(lastActivity(b), lastActivity(a))
	})
	return rooms
}

func lastActivity(r event.RoomView) int64 {
	if r.LastMessage == nil {
		return 0
	}
	return r.LastMessage.At.UnixNano()
}

func (i *Inbox) UnreadNotifications() int { return len(i.unreadNotifs) + i.unlisted }

// PendingNotifications lists the unread notifications the inbox knows the content of.
func (i *Inbox) PendingNotifications() []event.NotificationView {
	pending := make([]event.NotificationView, 0, len(i.unreadNotifs))
	for _, n := range i.notifications {
		if _, unread := i.unreadNotifs[n.ID]; unread {
			pending = append(pending, n)
		}
	}
	return pending
}

func (i *Inbox) TotalUnread() int {
	total := 0
	for _, r := range i.rooms {
		total += r.UnreadCount
	}
	return total
}
