package server

import (
	"context"
	"log/slog"
	"space-chat/auth"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"space-chat/infrastructure/grpc/api"
	_ "space-chat/infrastructure/grpc/codec"
	"space-chat/services"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

var _ api.ProvisioningServiceServer = (*ProvisioningServer)(nil)

// ProvisioningServer is the trusted side door used by booking and boards.
// Every call requires a token carrying the service role.
type ProvisioningServer struct {
	log     *slog.Logger
	service services.IProvisioningService
}

func NewProvisioningServer(log *slog.Logger, service services.IProvisioningService) *ProvisioningServer {
	return &ProvisioningServer{log: log, service: service}
}

// NewGRPCServer chains logging then authentication, and registers the provisioning and health services.
func NewGRPCServer(log *slog.Logger, tokens auth.TokenIssuer, service services.IProvisioningService) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(log),
			auth.AuthInterceptor(tokens, auth.ServiceRole),
		))
	api.RegisterProvisioningServiceServer(s, NewProvisioningServer(log, service))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return s, healthServer
}

func (s *ProvisioningServer) CreateRoom(ctx context.Context, req *api.CreateRoomRequest) (*api.RoomResponse, error) {
	room, err := s.service.CreateRoom(ctx, domain.CreateRoomCommand{
		Name:         req.Name,
		Participants: api.ToParticipantIDs(req.Participants),
	})
	if err != nil {
		return nil, s.fail("CreateRoom", err)
	}
	return api.ToRoomResponse(room), nil
}

func (s *ProvisioningServer) JoinRoom(ctx context.Context, req *api.MembershipRequest) (*api.RoomResponse, error) {
	room, err := s.service.JoinRoom(ctx, domain.JoinRoomCommand{
		Room:          domain.RoomID(req.RoomID),
		ParticipantID: domain.ParticipantID(req.ParticipantID),
	})
	if err != nil {
		return nil, s.fail("JoinRoom", err)
	}
	return api.ToRoomResponse(room), nil
}

func (s *ProvisioningServer) LeaveRoom(ctx context.Context, req *api.MembershipRequest) (*api.RoomResponse, error) {
	room, err := s.service.LeaveRoom(ctx, domain.LeaveRoomCommand{
		Room:          domain.RoomID(req.RoomID),
		ParticipantID: domain.ParticipantID(req.ParticipantID),
	})
	if err != nil {
		return nil, s.fail("LeaveRoom", err)
	}
	return api.ToRoomResponse(room), nil
}

func (s *ProvisioningServer) PublishNotification(ctx context.Context, req *api.PublishNotificationRequest) (*api.NotificationResponse, error) {
	notification, err := s.service.PublishNotification(ctx, domain.PublishNotificationCommand{
		RecipientID: domain.ParticipantID(req.RecipientID),
		Kind:        domain.NotificationKind(req.Kind),
		Content:     req.Content,
	})
	if err != nil {
		return nil, s.fail("PublishNotification", err)
	}
	return &api.NotificationResponse{Notification: event.ToNotificationView(notification)}, nil
}

func (s *ProvisioningServer) GetHistory(ctx context.Context, req *api.GetHistoryRequest) (*api.HistoryResponse, error) {
	messages, err := s.service.GetHistory(ctx, domain.RoomID(req.RoomID), req.AfterSeq, req.Limit)
	if err != nil {
		return nil, s.fail("GetHistory", err)
	}
	return &api.HistoryResponse{Messages: event.ToMessageViews(messages)}, nil
}

func (s *ProvisioningServer) GetUnread(ctx context.Context, req *api.GetUnreadRequest) (*api.UnreadResponse, error) {
	cursor, err := s.service.GetUnread(ctx, domain.RoomID(req.RoomID), domain.ParticipantID(req.ParticipantID))
	if err != nil {
		return nil, s.fail("GetUnread", err)
	}
	return &api.UnreadResponse{Unread: event.ToUnreadView(cursor, nil)}, nil
}

func (s *ProvisioningServer) ListRooms(ctx context.Context, req *api.ListRoomsRequest) (*api.ListRoomsResponse, error) {
	listing, err := s.service.ListRooms(ctx, domain.ParticipantID(req.ParticipantID))
	if err != nil {
		return nil, s.fail("ListRooms", err)
	}
	return &api.ListRoomsResponse{Active: api.RoomIDs(listing.Active), Left: api.RoomIDs(listing.Left)}, nil
}

func (s *ProvisioningServer) fail(method string, err error) error {
	if errors.CodeOf(err) == errors.CodeInternal {
		s.log.Error("Provisioning call failed", "method", method, "error", err)
	}
	return errors.MapToGRPCError(err)
}
