package services

import (
	"context"
	"space-chat/auth"
	"space-chat/domain"
	"space-chat/runtime"
)

const maxHistoryLimit = 500

// IProvisioningService is used by trusted collaborators (booking, boards) that
// create rooms, manage membership and push notifications on behalf of participants.
type IProvisioningService interface {
	CreateRoom(ctx context.Context, cmd domain.CreateRoomCommand) (domain.Room, error)
	JoinRoom(ctx context.Context, cmd domain.JoinRoomCommand) (domain.Room, error)
	LeaveRoom(ctx context.Context, cmd domain.LeaveRoomCommand) (domain.Room, error)
	PublishNotification(ctx context.Context, cmd domain.PublishNotificationCommand) (domain.Notification, error)
	GetHistory(ctx context.Context, roomID domain.RoomID, afterSeq uint64, limit int) ([]domain.Message, error)
	GetUnread(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) (domain.ReadCursor, error)
	ListRooms(ctx context.Context, p domain.ParticipantID) (RoomListing, error)
}

// RoomListing separates rooms still delivering from rooms only readable as history.
type RoomListing struct {
	Active []domain.RoomID
	Left   []domain.RoomID
}

type ProvisioningService struct {
	orchestrator *runtime.Orchestrator
}

func NewProvisioningService(o *runtime.Orchestrator) *ProvisioningService {
	return &ProvisioningService{orchestrator: o}
}

func (s *ProvisioningService) CreateRoom(ctx context.Context, cmd domain.CreateRoomCommand) (domain.Room, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Room{}, err
	}
	return s.orchestrator.CreateRoom(ctx, cmd.Name, cmd.Participants)
}

func (s *ProvisioningService) JoinRoom(ctx context.Context, cmd domain.JoinRoomCommand) (domain.Room, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Room{}, err
	}
	return s.orchestrator.JoinRoom(ctx, cmd.Room, cmd.ParticipantID)
}

func (s *ProvisioningService) LeaveRoom(ctx context.Context, cmd domain.LeaveRoomCommand) (domain.Room, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Room{}, err
	}
	return s.orchestrator.LeaveRoom(ctx, cmd.Room, cmd.ParticipantID)
}

func (s *ProvisioningService) PublishNotification(ctx context.Context, cmd domain.PublishNotificationCommand) (domain.Notification, error) {
	if err := auth.ValidateCommand(cmd); err != nil {
		return domain.Notification{}, err
	}
	return s.orchestrator.PublishNotification(ctx, cmd.RecipientID, cmd.Kind, cmd.Content)
}

// GetHistory reads the ledger without membership checks: the caller is trusted.
func (s *ProvisioningService) GetHistory(ctx context.Context, roomID domain.RoomID, afterSeq uint64, limit int) ([]domain.Message, error) {
	if _, err := s.orchestrator.Room(ctx, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	var messages []domain.Message
	for msg, err := range s.orchestrator.History(roomID, afterSeq) {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
		if len(messages) == limit {
			break
		}
	}
	return messages, nil
}

func (s *ProvisioningService) GetUnread(ctx context.Context, roomID domain.RoomID, p domain.ParticipantID) (domain.ReadCursor, error) {
	if err := p.Validate(); err != nil {
		return domain.ReadCursor{}, err
	}
	return s.orchestrator.Unread(ctx, roomID, p)
}

func (s *ProvisioningService) ListRooms(_ context.Context, p domain.ParticipantID) (RoomListing, error) {
	if err := p.Validate(); err != nil {
		return RoomListing{}, err
	}
	active, err := s.orchestrator.ListRoomsFor(p)
	if err != nil {
		return RoomListing{}, err
	}
	left, err := s.orchestrator.ListLeftRoomsFor(p)
	if err != nil {
		return RoomListing{}, err
	}
	return RoomListing{Active: active, Left: left}, nil
}
