package services

import (
	"context"
	"space-chat/auth"
	"space-chat/domain"
	"space-chat/runtime"

	"github.com/google/uuid"
)

// IChatService is what a connected participant can do.
// The participant always comes from a verified identity, never from the payload.
type IChatService interface {
	Connect(ctx context.Context, p domain.ParticipantID) (*runtime.Session, runtime.Snapshot, error)
	Disconnect(id domain.SessionID) error
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	EditMessage(ctx context.Context, cmd domain.EditMessageCommand) (domain.Message, error)
	DeleteMessage(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.Message, error)
	LeaveRoom(ctx context.Context, cmd domain.LeaveRoomCommand) (domain.Room, error)
	MarkRead(ctx context.Context, cmd domain.MarkReadCommand) (domain.ReadCursor, error)
	MarkActive(ctx context.Context, sessionID domain.SessionID, roomID domain.RoomID) (domain.ReadCursor, error)
	MarkInactive(ctx context.Context, sessionID domain.SessionID, roomID domain.RoomID) error
	History(ctx context.Context, query domain.HistoryQuery) ([]domain.Message, error)
	LatestMessages(ctx context.Context, query domain.HistoryQuery, beforeSeq uint64) ([]domain.Message, error)
	SearchMessages(ctx context.Context, p domain.ParticipantID, input string) ([]domain.Message, error)
	ListNotifications(ctx context.Context, p domain.ParticipantID, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, p domain.ParticipantID, id uuid.UUID) (domain.Notification, error)
}

const defaultPageSize = 50

type ChatService struct {
	orchestrator *runtime.Orchestrator
}

func NewChatService(o *runtime.Orchestrator) *ChatService {
	return &ChatService{orchestrator: o}
}

func (s *ChatService) Connect(ctx context.Context, p domain.ParticipantID) (*runtime.Session, runtime.Snapshot, error) {
	return s.orchestrator.Connect(ctx, p)
}

func (s *ChatService) Disconnect(id domain.SessionID) error {
	return s.orchestrator.Disconnect(id)
}

func (s *ChatService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	return s.orchestrator.SendMessage(ctx, cmd.Room, cmd.SenderID, cmd.Content)
}

func (s *ChatService) EditMessage(ctx context.Context, cmd domain.EditMessageCommand) (domain.Message, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	return s.orchestrator.EditMessage(ctx, cmd.MessageID, cmd.RequesterID, cmd.Content)
}

func (s *ChatService) DeleteMessage(ctx context.Context, cmd domain.DeleteMessageCommand) (domain.Message, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	return s.orchestrator.DeleteMessage(ctx, cmd.MessageID, cmd.RequesterID)
}

func (s *ChatService) LeaveRoom(ctx context.Context, cmd domain.LeaveRoomCommand) (domain.Room, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Room{}, err
	}
	return s.orchestrator.LeaveRoom(ctx, cmd.Room, cmd.ParticipantID)
}

func (s *ChatService) MarkRead(ctx context.Context, cmd domain.MarkReadCommand) (domain.ReadCursor, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.ReadCursor{}, err
	}
	return s.orchestrator.MarkRead(ctx, cmd.Room, cmd.ParticipantID)
}

func (s *ChatService) MarkActive(ctx context.Context, sessionID domain.SessionID, roomID domain.RoomID) (domain.ReadCursor, error) {
	return s.orchestrator.MarkActive(ctx, sessionID, roomID)
}

func (s *ChatService) MarkInactive(ctx context.Context, sessionID domain.SessionID, roomID domain.RoomID) error {
	return s.orchestrator.MarkInactive(ctx, sessionID, roomID)
}

func (s *ChatService) History(ctx context.Context, query domain.HistoryQuery) ([]domain.Message, error) {
	if err := auth.ValidateCommand(query); err != nil {
		return nil, err
	}
	return s.orchestrator.HistoryFor(ctx, query.RequesterID, query.Room, query.AfterSeq, query.Limit)
}

// LatestMessages pages backwards from beforeSeq, newest first. AfterSeq is ignored.
func (s *ChatService) LatestMessages(ctx context.Context, query domain.HistoryQuery, beforeSeq uint64) ([]domain.Message, error) {
	if err := auth.ValidateCommand(query); err != nil {
		return nil, err
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultPageSize
	}
	return s.orchestrator.LatestMessages(ctx, query.RequesterID, query.Room, beforeSeq, limit)
}

func (s *ChatService) SearchMessages(ctx context.Context, p domain.ParticipantID, input string) ([]domain.Message, error) {
	return s.orchestrator.SearchMessages(ctx, p, input)
}

func (s *ChatService) ListNotifications(ctx context.Context, p domain.ParticipantID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	return s.orchestrator.ListNotifications(ctx, p, unreadOnly, limit)
}

func (s *ChatService) MarkNotificationRead(ctx context.Context, p domain.ParticipantID, id uuid.UUID) (domain.Notification, error) {
	return s.orchestrator.MarkNotificationRead(ctx, p, id)
}
