package api

import (
	"context"
	"space-chat/infrastructure/grpc/codec"

	"google.golang.org/grpc"
)

const ServiceName = "spacechat.v1.ProvisioningService"

const (
	ProvisioningService_CreateRoom_FullMethodName          = "/spacechat.v1.ProvisioningService/CreateRoom"
	ProvisioningService_JoinRoom_FullMethodName            = "/spacechat.v1.ProvisioningService/JoinRoom"
	ProvisioningService_LeaveRoom_FullMethodName           = "/spacechat.v1.ProvisioningService/LeaveRoom"
	ProvisioningService_PublishNotification_FullMethodName = "/spacechat.v1.ProvisioningService/PublishNotification"
	ProvisioningService_GetHistory_FullMethodName          = "/spacechat.v1.ProvisioningService/GetHistory"
	ProvisioningService_GetUnread_FullMethodName           = "/spacechat.v1.ProvisioningService/GetUnread"
	ProvisioningService_ListRooms_FullMethodName           = "/spacechat.v1.ProvisioningService/ListRooms"
)

// ProvisioningServiceServer is implemented by the server side of the provisioning API.
type ProvisioningServiceServer interface {
	CreateRoom(context.Context, *CreateRoomRequest) (*RoomResponse, error)
	JoinRoom(context.Context, *MembershipRequest) (*RoomResponse, error)
	LeaveRoom(context.Context, *MembershipRequest) (*RoomResponse, error)
	PublishNotification(context.Context, *PublishNotificationRequest) (*NotificationResponse, error)
	GetHistory(context.Context, *GetHistoryRequest) (*HistoryResponse, error)
	GetUnread(context.Context, *GetUnreadRequest) (*UnreadResponse, error)
	ListRooms(context.Context, *ListRoomsRequest) (*ListRoomsResponse, error)
}

func RegisterProvisioningServiceServer(s grpc.ServiceRegistrar, srv ProvisioningServiceServer) {
	s.RegisterService(&ProvisioningService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method to the shape grpc.MethodDesc expects.
func unaryHandler[Req any, Res any](fullMethod string, call func(ProvisioningServiceServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(ProvisioningServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ProvisioningService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProvisioningServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateRoom", Handler: unaryHandler(ProvisioningService_CreateRoom_FullMethodName, ProvisioningServiceServer.CreateRoom)},
		{MethodName: "JoinRoom", Handler: unaryHandler(ProvisioningService_JoinRoom_FullMethodName, ProvisioningServiceServer.JoinRoom)},
		{MethodName: "LeaveRoom", Handler: unaryHandler(ProvisioningService_LeaveRoom_FullMethodName, ProvisioningServiceServer.LeaveRoom)},
		{MethodName: "PublishNotification", Handler: unaryHandler(ProvisioningService_PublishNotification_FullMethodName, ProvisioningServiceServer.PublishNotification)},
		{MethodName: "GetHistory", Handler: unaryHandler(ProvisioningService_GetHistory_FullMethodName, ProvisioningServiceServer.GetHistory)},
		{MethodName: "GetUnread", Handler: unaryHandler(ProvisioningService_GetUnread_FullMethodName, ProvisioningServiceServer.GetUnread)},
		{MethodName: "ListRooms", Handler: unaryHandler(ProvisioningService_ListRooms_FullMethodName, ProvisioningServiceServer.ListRooms)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "spacechat/v1/provisioning",
}

type ProvisioningServiceClient interface {
	CreateRoom(ctx context.Context, in *CreateRoomRequest, opts ...grpc.CallOption) (*RoomResponse, error)
	JoinRoom(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*RoomResponse, error)
	LeaveRoom(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*RoomResponse, error)
	PublishNotification(ctx context.Context, in *PublishNotificationRequest, opts ...grpc.CallOption) (*NotificationResponse, error)
	GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error)
	GetUnread(ctx context.Context, in *GetUnreadRequest, opts ...grpc.CallOption) (*UnreadResponse, error)
	ListRooms(ctx context.Context, in *ListRoomsRequest, opts ...grpc.CallOption) (*ListRoomsResponse, error)
}

type provisioningServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProvisioningServiceClient(cc grpc.ClientConnInterface) ProvisioningServiceClient {
	return &provisioningServiceClient{cc: cc}
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *provisioningServiceClient) CreateRoom(ctx context.Context, in *CreateRoomRequest, opts ...grpc.CallOption) (*RoomResponse, error) {
	return invoke[RoomResponse](ctx, c.cc, ProvisioningService_CreateRoom_FullMethodName, in, opts)
}

func (c *provisioningServiceClient) JoinRoom(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*RoomResponse, error) {
	return invoke[RoomResponse](ctx, c.cc, ProvisioningService_JoinRoom_FullMethodName, in, opts)
}

func (c *provisioningServiceClient) LeaveRoom(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*RoomResponse, error) {
	return invoke[RoomResponse](ctx, c.cc, ProvisioningService_LeaveRoom_FullMethodName, in, opts)
}

func (c *provisioningServiceClient) PublishNotification(ctx context.Context, in *PublishNotificationRequest, opts ...grpc.CallOption) (*NotificationResponse, error) {
	return invoke[NotificationResponse](ctx, c.cc, ProvisioningService_PublishNotification_FullMethodName, in, opts)
}

func (c *provisioningServiceClient) GetHistory(ctx context.Context, in *GetHistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, ProvisioningService_GetHistory_FullMethodName, in, opts)
}

func (c *provisioningServiceClient) GetUnread(ctx context.Context, in *GetUnreadRequest, opts ...grpc.CallOption) (*UnreadResponse, error) {
	return invoke[UnreadResponse](ctx, c.cc, ProvisioningService_GetUnread_FullMethodName, in, opts)
}

func (c *provisioningServiceClient) ListRooms(ctx context.Context, in *ListRoomsRequest, opts ...grpc.CallOption) (*ListRoomsResponse, error) {
	return invoke[ListRoomsResponse](ctx, c.cc, ProvisioningService_ListRooms_FullMethodName, in, opts)
}
