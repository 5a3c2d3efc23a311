// Package runtime handles session lifecycle, per-room serialization and event fanout.
// It orchestrates the system: domain rules live in domain, persistence in repositories.
package runtime

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"space-chat/contract"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/domain/search"
	"space-chat/errors"
	"space-chat/repositories"
	"space-chat/runtime/workers"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Options struct {
	MaxContentLength    int
	HistoryPageSize     int
	RoomIdleTimeout     time.Duration
	SessionBufferSize   int
	SinkTimeout         time.Duration
	BufferSize          int
	RecentNotifications int
}

// Snapshot is what a client needs to render its room list right after connecting.
type Snapshot struct {
	SessionID           domain.SessionID
	ParticipantID       domain.ParticipantID
	Rooms               []domain.RoomSummary
	UnreadNotifications int
	Notifications       []domain.Notification
}

type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	opts           Options
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	dispatcher     contract.IDispatcher
	unread         UnreadTracker
	repos          repositories.Repositories
	actors         map[domain.RoomID]*roomActor
	permanentSinks []contract.EventSink
	domainEvents   chan event.DomainEvent
	now            func() time.Time
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry contract.IRegistry,
	repos repositories.Repositories, telemetryChan chan event.Event, opts Options) *Orchestrator {
	domainEvents := make(chan event.DomainEvent, opts.BufferSize)
	return &Orchestrator{
		log:          log,
		opts:         opts,
		supervisor:   supervisor,
		registry:     registry,
		dispatcher:   NewDispatcher(log, registry, telemetryChan, domainEvents),
		unread:       NewUnreadTracker(registry.IsViewing),
		repos:        repos,
		actors:       make(map[domain.RoomID]*roomActor),
		domainEvents: domainEvents,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Add registers permanent sinks. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// DomainEvents is sampled by the channel capacity worker.
func (o *Orchestrator) DomainEvents() chan event.DomainEvent { return o.domainEvents }

// Start registers the fanout worker and runs the supervisor until ctx is done.
// Room workers are spawned on demand under the same supervisor.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	fanoutWorker := workers.NewEventFanout(o.log, o.domainEvents, o.opts.SinkTimeout).Add(o.permanentSinks...)
	o.supervisor.Add(fanoutWorker)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown: every supervised worker is cancelled.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// CreateRoom persists a room with its initial membership and a read cursor per participant.
func (o *Orchestrator) CreateRoom(ctx context.Context, name string, participants []domain.ParticipantID) (domain.Room, error) {
	now := o.now()
	room, err := domain.NewRoom(domain.NewRoomID(), name, participants, now)
	if err != nil {
		return domain.Room{}, err
	}
	cursors := lo.Map(room.ParticipantIDs(), func(p domain.ParticipantID, _ int) domain.ReadCursor {
		return domain.NewReadCursor(room.ID, p, 0, now)
	})
	if err := o.repos.Ledger.Commit(repositories.Mutation{Room: &room, Cursors: cursors}); err != nil {
		return domain.Room{}, err
	}
	o.log.Debug("Room created", "room", room.ID, "participants", len(cursors))

	dctx := context.WithoutCancel(ctx)
	for _, cursor := range cursors {
		o.registry.SubscribeParticipant(cursor.ParticipantID, event.RoomTopic(room.ID))
		o.dispatcher.PublishToParticipant(dctx, cursor.ParticipantID, event.RoomCreated{
			Recipient: cursor.ParticipantID,
			Room:      domain.NewRoomSummary(room, cursor),
		})
	}
	return room, nil
}

// JoinRoom is idempotent: joining twice changes nothing and publishes nothing.
func (o *Orchestrator) JoinRoom(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) (domain.Room, error) {
	if err := p.Validate(); err != nil {
		return domain.Room{}, err
	}
	var joined domain.Room
	err := o.onRoom(ctx, roomID, func(s *roomState) error {
		room := s.room.Clone()
		if !room.Join(p) {
			joined = room
			return nil
		}
		cursor := domain.NewReadCursor(room.ID, p, room.LastSeq, o.now())
		if err := o.repos.Ledger.Commit(repositories.Mutation{Room: &room, Cursors: []domain.ReadCursor{cursor}}); err != nil {
			return err
		}
		s.apply(room, []domain.ReadCursor{cursor}, nil)
		joined = room

		dctx := context.WithoutCancel(ctx)
		o.registry.SubscribeParticipant(p, event.RoomTopic(room.ID))
		o.dispatcher.Publish(dctx, room.ID, event.ParticipantJoined{Room: room.ID, Participant: p, LastSeq: room.LastSeq, At: cursor.UpdatedAt})
		o.dispatcher.PublishToParticipant(dctx, p, event.RoomAdded{Recipient: p, Room: domain.NewRoomSummary(room, cursor)})
		return nil
	})
	return joined, err
}

// LeaveRoom moves p to the left participants. p keeps read access to the history.
func (o *Orchestrator) LeaveRoom(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) (domain.Room, error) {
	var left domain.Room
	err := o.onRoom(ctx, roomID, func(s *roomState) error {
		room := s.room.Clone()
		if room.HasLeft(p) {
			left = room
			return nil
		}
		if !room.Leave(p) {
			return fmt.Errorf("leave %s by %s: %w", roomID, p, errors.ErrNotParticipant)
		}
		mutation := repositories.Mutation{Room: &room, ClearedCursors: []domain.ParticipantID{p}}
		if err := o.repos.Ledger.Commit(mutation); err != nil {
			return err
		}
		s.apply(room, nil, mutation.ClearedCursors)
		left = room

		// The leaver's sessions still receive their own departure
		o.dispatcher.Publish(context.WithoutCancel(ctx), room.ID, event.ParticipantLeft{
			Room: room.ID, Participant: p, LastSeq: room.LastSeq, At: o.now(),
		})
		o.registry.UnsubscribeParticipant(p, event.RoomTopic(room.ID))
		o.registry.ClearViewing(p, room.ID)
		return nil
	})
	return left, err
}

func (o *Orchestrator) ListRoomsFor(p domain.ParticipantID) ([]domain.RoomID, error) {
	return o.repos.Rooms.ListActiveFor(p)
}

// Room returns the current state of a room, from its worker snapshot when loaded.
func (o *Orchestrator) Room(ctx context.Context, roomID domain.RoomID) (domain.Room, error) {
	snapshot, err := o.view(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	return snapshot.room, nil
}

// ListLeftRoomsFor lists rooms p left and can still read.
func (o *Orchestrator) ListLeftRoomsFor(p domain.ParticipantID) ([]domain.RoomID, error) {
	return o.repos.Rooms.ListLeftFor(p)
}

// SendMessage appends a message to the room's ledger with the next seq.
func (o *Orchestrator) SendMessage(ctx context.Context, roomID domain.RoomID, sender domain.ParticipantID, content string) (domain.Message, error) {
	if err := domain.ValidateContent(content, o.opts.MaxContentLength); err != nil {
		return domain.Message{}, err
	}
	lang := detectLanguage(content)
	var sent domain.Message
	err := o.onRoom(ctx, roomID, func(s *roomState) error {
		room := s.room.Clone()
		if !room.IsParticipant(sender) {
			return fmt.Errorf("send to %s by %s: %w", roomID, sender, errors.ErrNotParticipant)
		}
		msg := domain.NewMessage(room.ID, room.LastSeq+1, sender, content, lang, o.now())
		if err := room.Record(msg); err != nil {
			return err
		}
		cursors, changed := o.unread.OnMessage(room, s.cursors, msg)
		err := o.repos.Ledger.Commit(repositories.Mutation{
			Room:     &room,
			Messages: []domain.Message{msg},
			Cursors:  cursors,
		})
		if err != nil {
			return err
		}
		s.apply(room, cursors, nil)
		sent = msg

		dctx := context.WithoutCancel(ctx)
		o.dispatcher.Publish(dctx, room.ID, event.MessageSent{Message: msg})
		for _, cursor := range changed {
			o.dispatcher.PublishToParticipant(dctx, cursor.ParticipantID, event.UnreadUpdated{Cursor: cursor, LastMessage: room.LastMessage})
		}
		return nil
	})
	return sent, err
}

// EditMessage rewrites the content of a message, keeping its seq.
func (o *Orchestrator) EditMessage(ctx context.Context, messageID uuid.UUID, requester domain.ParticipantID, content string) (domain.Message, error) {
	if err := domain.ValidateContent(content, o.opts.MaxContentLength); err != nil {
		return domain.Message{}, err
	}
	lang := detectLanguage(content)
	roomID, err := o.repos.Messages.Locate(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	var edited domain.Message
	err = o.onRoom(ctx, roomID, func(s *roomState) error {
		msg, err := o.repos.Messages.Get(messageID)
		if err != nil {
			return err
		}
		if err := msg.Edit(requester, content, lang, o.now()); err != nil {
			return err
		}
		room := s.room.Clone()
		mutation := repositories.Mutation{Messages: []domain.Message{msg}}
		refreshed := room.Refresh(msg)
		if refreshed {
			mutation.Room = &room
		}
		if err := o.repos.Ledger.Commit(mutation); err != nil {
			return err
		}
		if refreshed {
			s.apply(room, nil, nil)
		}
		edited = msg
		o.dispatcher.Publish(context.WithoutCancel(ctx), room.ID, event.MessageEdited{Message: msg})
		return nil
	})
	return edited, err
}

// DeleteMessage replaces the content with the delete marker.
// Deleting twice returns the stored marker and publishes nothing.
func (o *Orchestrator) DeleteMessage(ctx context.Context, messageID uuid.UUID, requester domain.ParticipantID) (domain.Message, error) {
	roomID, err := o.repos.Messages.Locate(messageID)
	if err != nil {
		return domain.Message{}, err
	}
	var deleted domain.Message
	err = o.onRoom(ctx, roomID, func(s *roomState) error {
		msg, err := o.repos.Messages.Get(messageID)
		if err != nil {
			return err
		}
		changed, err := msg.SoftDelete(requester, o.now())
		if err != nil {
			return err
		}
		deleted = msg
		if !changed {
			return nil
		}
		room := s.room.Clone()
		mutation := repositories.Mutation{Messages: []domain.Message{msg}}
		refreshed := room.Refresh(msg)
		if refreshed {
			mutation.Room = &room
		}
		if err := o.repos.Ledger.Commit(mutation); err != nil {
			return err
		}
		if refreshed {
			s.apply(room, nil, nil)
		}
		o.dispatcher.Publish(context.WithoutCancel(ctx), room.ID, event.MessageDeleted{Message: msg})
		return nil
	})
	return deleted, err
}

// History iterates over the ledger of a room in ascending seq, one page at a time.
// The sequence is lazy and can be ranged over again.
func (o *Orchestrator) History(roomID domain.RoomID, afterSeq uint64) iter.Seq2[domain.Message, error] {
	return func(yield func(domain.Message, error) bool) {
		cursor := afterSeq
		for {
			page, err := o.repos.Messages.Range(roomID, cursor, o.opts.HistoryPageSize)
			if err != nil {
				yield(domain.Message{}, err)
				return
			}
			if len(page) == 0 {
				return
			}
			for _, msg := range page {
				if !yield(msg, nil) {
					return
				}
				cursor = msg.Seq
			}
		}
	}
}

// HistoryFor returns at most limit messages after afterSeq, for a current or former participant.
func (o *Orchestrator) HistoryFor(ctx context.Context, requester domain.ParticipantID, roomID domain.RoomID, afterSeq uint64, limit int) ([]domain.Message, error) {
	if err := o.checkHistoryAccess(ctx, requester, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = o.opts.HistoryPageSize
	}
	var messages []domain.Message
	for msg, err := range o.History(roomID, afterSeq) {
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
		if len(messages) == limit {
			break
		}
	}
	return messages, nil
}

// LatestMessages pages backwards, newest first, from beforeSeq (0 means the end of the ledger).
func (o *Orchestrator) LatestMessages(ctx context.Context, requester domain.ParticipantID, roomID domain.RoomID, beforeSeq uint64, limit int) ([]domain.Message, error) {
	if err := o.checkHistoryAccess(ctx, requester, roomID); err != nil {
		return nil, err
	}
	return o.repos.Messages.Latest(roomID, beforeSeq, limit)
}

func (o *Orchestrator) checkHistoryAccess(ctx context.Context, requester domain.ParticipantID, roomID domain.RoomID) error {
	snapshot, err := o.view(ctx, roomID)
	if err != nil {
		return err
	}
	if !snapshot.room.HasHistoryAccess(requester) {
		return fmt.Errorf("history of %s for %s: %w", roomID, requester, errors.ErrNotParticipant)
	}
	return nil
}

// SearchMessages runs a full-text query over the rooms the requester can read.
func (o *Orchestrator) SearchMessages(ctx context.Context, requester domain.ParticipantID, input string) ([]domain.Message, error) {
	if o.repos.Index == nil {
		return nil, fmt.Errorf("search is disabled: %w", errors.ErrInvalidQuery)
	}
	query, err := search.NewSearchQuery(input)
	if err != nil {
		return nil, err
	}
	active, err := o.repos.Rooms.ListActiveFor(requester)
	if err != nil {
		return nil, err
	}
	left, err := o.repos.Rooms.ListLeftFor(requester)
	if err != nil {
		return nil, err
	}
	rooms := append(active, left...)
	if query.RoomID != "" {
		if !slices.Contains(rooms, query.RoomID) {
			return nil, fmt.Errorf("search in %s: %w", query.RoomID, errors.ErrNotParticipant)
		}
		rooms = []domain.RoomID{query.RoomID}
	}
	ids, err := o.repos.Index.Search(ctx, query, rooms)
	if err != nil {
		return nil, err
	}
	var messages []domain.Message
	for _, id := range ids {
		msg, err := o.repos.Messages.Get(id)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !msg.IsDeleted() {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// MarkRead resets the unread count of p and advances the cursor to the room's last seq.
func (o *Orchestrator) MarkRead(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) (domain.ReadCursor, error) {
	var read domain.ReadCursor
	err := o.onRoom(ctx, roomID, func(s *roomState) error {
		if !s.room.IsParticipant(p) {
			return fmt.Errorf("mark read %s by %s: %w", roomID, p, errors.ErrNotParticipant)
		}
		cursor, err := o.markRead(ctx, s, p)
		read = cursor
		return err
	})
	return read, err
}

// markRead runs inside the room's worker, p being a participant.
func (o *Orchestrator) markRead(ctx context.Context, s *roomState, p domain.ParticipantID) (domain.ReadCursor, error) {
	cursor := o.unread.MarkRead(s.room, s.cursors, p, o.now())
	if err := o.repos.Ledger.Commit(repositories.Mutation{Cursors: []domain.ReadCursor{cursor}}); err != nil {
		return domain.ReadCursor{}, err
	}
	s.apply(s.room, []domain.ReadCursor{cursor}, nil)
	o.dispatcher.PublishToParticipant(context.WithoutCancel(ctx), p, event.UnreadUpdated{Cursor: cursor, LastMessage: s.room.LastMessage})
	return cursor, nil
}

// Unread is a read-only query. A participant without a cursor is reported as caught up.
func (o *Orchestrator) Unread(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) (domain.ReadCursor, error) {
	snapshot, err := o.view(ctx, roomID)
	if err != nil {
		return domain.ReadCursor{}, err
	}
	if !snapshot.room.IsParticipant(p) {
		return domain.ReadCursor{}, fmt.Errorf("unread of %s for %s: %w", roomID, p, errors.ErrNotParticipant)
	}
	if cursor, ok := snapshot.cursors[p]; ok {
		return cursor, nil
	}
	return domain.NewReadCursor(roomID, p, snapshot.room.LastSeq, o.now()), nil
}

// Connect registers a session and subscribes it before building the snapshot:
// an event may show up both in the snapshot and on the session, none is missed.
func (o *Orchestrator) Connect(ctx context.Context, p domain.ParticipantID) (*Session, Snapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, Snapshot{}, err
	}
	session := NewSession(p, o.opts.SessionBufferSize)
	o.registry.Register(session)
	o.registry.SubscribeParticipant(p, event.ParticipantTopic(p))

	snapshot, err := o.subscribeAndSnapshot(ctx, session)
	if err != nil {
		o.registry.Remove(session.ID())
		session.Close()
		return nil, Snapshot{}, err
	}
	o.log.Debug("Session connected", "session", session.ID(), "participant", p, "rooms", len(snapshot.Rooms))
	return session, snapshot, nil
}

func (o *Orchestrator) subscribeAndSnapshot(ctx context.Context, session *Session) (Snapshot, error) {
	p := session.ParticipantID()
	roomIDs, err := o.repos.Rooms.ListActiveFor(p)
	if err != nil {
		return Snapshot{}, err
	}
	for _, roomID := range roomIDs {
		o.registry.SubscribeParticipant(p, event.RoomTopic(roomID))
	}

	snapshot := Snapshot{SessionID: session.ID(), ParticipantID: p}
	for _, roomID := range roomIDs {
		summary, err := o.summary(ctx, roomID, p)
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrForbidden) {
			// left or vanished since the listing
			if err := o.dropStaleSubscription(ctx, roomID, p); err != nil {
				return Snapshot{}, err
			}
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}
		snapshot.Rooms = append(snapshot.Rooms, summary)
	}
	slices.SortStableFunc(snapshot.Rooms, byLastActivity)

	if snapshot.UnreadNotifications, err = o.repos.Notifications.CountUnread(p); err != nil {
		return Snapshot{}, err
	}
	if snapshot.Notifications, err = o.repos.Notifications.List(p, true, o.opts.RecentNotifications); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// dropStaleSubscription undoes a room subscription taken from an outdated listing.
// Membership is checked again inside the room's worker so a concurrent rejoin keeps its subscription.
func (o *Orchestrator) dropStaleSubscription(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) error {
	err := o.onRoom(ctx, roomID, func(s *roomState) error {
		if !s.room.IsParticipant(p) {
			o.registry.UnsubscribeParticipant(p, event.RoomTopic(roomID))
		}
		return nil
	})
	if errors.Is(err, errors.ErrNotFound) {
		o.registry.UnsubscribeParticipant(p, event.RoomTopic(roomID))
		return nil
	}
	return err
}

// summary builds the listing entry of a room, creating the missing cursor on the way.
func (o *Orchestrator) summary(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) (domain.RoomSummary, error) {
	snapshot, err := o.view(ctx, roomID)
	if err != nil {
		return domain.RoomSummary{}, err
	}
	if cursor, ok := snapshot.cursors[p]; ok && snapshot.room.IsParticipant(p) {
		return domain.NewRoomSummary(snapshot.room, cursor), nil
	}
	var summary domain.RoomSummary
	err = o.onRoom(ctx, roomID, func(s *roomState) error {
		if !s.room.IsParticipant(p) {
			return errors.ErrNotParticipant
		}
		cursor, ok := s.cursors[p]
		if !ok {
			cursor = domain.NewReadCursor(roomID, p, s.room.LastSeq, o.now())
			if err := o.repos.Ledger.Commit(repositories.Mutation{Cursors: []domain.ReadCursor{cursor}}); err != nil {
				return err
			}
			s.apply(s.room, []domain.ReadCursor{cursor}, nil)
		}
		summary = domain.NewRoomSummary(s.room, cursor)
		return nil
	})
	return summary, err
}

// Disconnect releases the session's subscriptions and active flags. Membership is untouched.
func (o *Orchestrator) Disconnect(id domain.SessionID) error {
	session, ok := o.registry.Remove(id)
	if !ok {
		return fmt.Errorf("disconnect %s: %w", id, errors.ErrSessionNotFound)
	}
	session.Close()
	o.log.Debug("Session disconnected", "session", id, "participant", session.ParticipantID())
	return nil
}

// MarkActive flags the session as viewing the room. Selecting a room also marks it read.
// The membership check, the flag and the cursor change share one room task, so a
// leave either rejects the whole command or clears the flag after it.
func (o *Orchestrator) MarkActive(ctx context.Context, id domain.SessionID, roomID domain.RoomID) (domain.ReadCursor, error) {
	session, ok := o.registry.Get(id)
	if !ok {
		return domain.ReadCursor{}, fmt.Errorf("session %s: %w", id, errors.ErrSessionNotFound)
	}
	p := session.ParticipantID()
	var read domain.ReadCursor
	err := o.onRoom(ctx, roomID, func(s *roomState) error {
		if !s.room.IsParticipant(p) {
			return fmt.Errorf("session %s in %s: %w", id, roomID, errors.ErrNotParticipant)
		}
		if err := o.registry.SetViewing(id, roomID, true); err != nil {
			return err
		}
		cursor, err := o.markRead(ctx, s, p)
		if err != nil {
			_ = o.registry.SetViewing(id, roomID, false)
			return err
		}
		read = cursor
		return nil
	})
	return read, err
}

func (o *Orchestrator) MarkInactive(ctx context.Context, id domain.SessionID, roomID domain.RoomID) error {
	if _, err := o.sessionInRoom(ctx, id, roomID); err != nil {
		return err
	}
	return o.registry.SetViewing(id, roomID, false)
}

func (o *Orchestrator) sessionInRoom(ctx context.Context, id domain.SessionID, roomID domain.RoomID) (domain.ParticipantID, error) {
	session, ok := o.registry.Get(id)
	if !ok {
		return "", fmt.Errorf("session %s: %w", id, errors.ErrSessionNotFound)
	}
	snapshot, err := o.view(ctx, roomID)
	if err != nil {
		return "", err
	}
	p := session.ParticipantID()
	if !snapshot.room.IsParticipant(p) {
		return "", fmt.Errorf("session %s in %s: %w", id, roomID, errors.ErrNotParticipant)
	}
	return p, nil
}

// PublishNotification persists a notification then pushes it to every session of the recipient.
func (o *Orchestrator) PublishNotification(ctx context.Context, recipient domain.ParticipantID, kind domain.NotificationKind, content string) (domain.Notification, error) {
	if err := recipient.Validate(); err != nil {
		return domain.Notification{}, err
	}
	if err := kind.Validate(); err != nil {
		return domain.Notification{}, err
	}
	if err := domain.ValidateContent(content, o.opts.MaxContentLength); err != nil {
		return domain.Notification{}, err
	}
	notification := domain.NewNotification(recipient, kind, content, o.now())
	if err := o.repos.Notifications.Store(notification); err != nil {
		return domain.Notification{}, err
	}
	o.dispatcher.PublishToParticipant(context.WithoutCancel(ctx), recipient, event.NotificationPublished{Notification: notification})
	return notification, nil
}

func (o *Orchestrator) MarkNotificationRead(ctx context.Context, recipient domain.ParticipantID, id uuid.UUID) (domain.Notification, error) {
	notification, err := o.repos.Notifications.MarkRead(recipient, id)
	if err != nil {
		return domain.Notification{}, err
	}
	o.dispatcher.PublishToParticipant(context.WithoutCancel(ctx), recipient, event.NotificationRead{Notification: notification})
	return notification, nil
}

// ListNotifications returns the newest notifications first.
func (o *Orchestrator) ListNotifications(_ context.Context, recipient domain.ParticipantID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	return o.repos.Notifications.List(recipient, unreadOnly, limit)
}

// onRoom runs fn on the worker of the room, spawning it when the room is not loaded.
// A worker that retired between lookup and submission is replaced transparently.
func (o *Orchestrator) onRoom(ctx context.Context, roomID domain.RoomID, fn func(s *roomState) error) error {
	if err := roomID.Validate(); err != nil {
		return err
	}
	for {
		actor, err := o.actor(roomID)
		if err != nil {
			return err
		}
		err = actor.worker.Do(ctx, func() error { return fn(actor.state) })
		if !errors.Is(err, errors.ErrRoomWorkerStopped) {
			return err
		}
		o.forget(roomID, actor)
	}
}

func (o *Orchestrator) actor(roomID domain.RoomID) (*roomActor, error) {
	o.mu.Lock()
	actor, ok := o.actors[roomID]
	o.mu.Unlock()
	if ok {
		return actor, nil
	}

	// I/O without lock
	room, err := o.repos.Rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	cursors, err := o.repos.Cursors.ListForRoom(roomID)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if actor, ok := o.actors[roomID]; ok {
		return actor, nil
	}
	actor = &roomActor{state: newRoomState(room, cursors)}
	actor.worker = workers.NewRoomWorker(roomID, o.log, o.opts.RoomIdleTimeout, func() bool {
		return o.forget(roomID, actor)
	})
	if err := o.supervisor.Spawn(actor.worker); err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, errors.ErrOrchestratorClosed)
	}
	o.actors[roomID] = actor
	return actor, nil
}

// forget unregisters actor if it is still the room's current one.
func (o *Orchestrator) forget(roomID domain.RoomID, actor *roomActor) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.actors[roomID] != actor {
		return false
	}
	delete(o.actors, roomID)
	return true
}

// view returns the latest snapshot of a loaded room, or reads the room from the store.
func (o *Orchestrator) view(ctx context.Context, roomID domain.RoomID) (*roomSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := roomID.Validate(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	actor, ok := o.actors[roomID]
	o.mu.Unlock()
	if ok {
		return actor.state.load(), nil
	}
	room, err := o.repos.Rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	cursors, err := o.repos.Cursors.ListForRoom(roomID)
	if err != nil {
		return nil, err
	}
	return &roomSnapshot{
		room:    room,
		cursors: lo.KeyBy(cursors, func(c domain.ReadCursor) domain.ParticipantID { return c.ParticipantID }),
	}, nil
}

// Sessions lists every live session.
func (o *Orchestrator) Sessions() []contract.Subscriber { return o.registry.All() }

func (o *Orchestrator) LiveSessions() int { return len(o.registry.All()) }

// LoadedRooms reports how many room workers are alive.
func (o *Orchestrator) LoadedRooms() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.actors)
}

// detectLanguage returns an ISO 639-1 hint, empty when the detection is unreliable.
func detectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

func byLastActivity(a, b domain.RoomSummary) int {
	return cmp.Compare(lastActivity(b), lastActivity(a))
}

func lastActivity(s domain.RoomSummary) int64 {
	if s.LastMessage == nil {
		return 0
	}
	return s.LastMessage.At.UnixNano()
}
