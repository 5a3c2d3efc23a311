package client

import (
	"context"
	"fmt"
	"space-chat/infrastructure/grpc/api"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// ProvisioningClient calls the provisioning API on behalf of a trusted service.
type ProvisioningClient struct {
	api.ProvisioningServiceClient
	conn  *grpc.ClientConn
	token string
}

// NewProvisioningClient dials address and attaches token to every call.
func NewProvisioningClient(address, token string, opts ...grpc.DialOption) (*ProvisioningClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return FromConn(conn, token), nil
}

// FromConn wraps an existing connection, mostly useful with bufconn in tests.
func FromConn(conn *grpc.ClientConn, token string) *ProvisioningClient {
	c := &ProvisioningClient{conn: conn, token: token}
	c.ProvisioningServiceClient = api.NewProvisioningServiceClient(withToken{conn: conn, token: token})
	return c
}

func (c *ProvisioningClient) Close() error { return c.conn.Close() }

// withToken appends the bearer header to the outgoing metadata.
type withToken struct {
	conn  *grpc.ClientConn
	token string
}

func (w withToken) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	return w.conn.Invoke(w.authorize(ctx), method, args, reply, opts...)
}

func (w withToken) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return w.conn.NewStream(w.authorize(ctx), desc, method, opts...)
}

func (w withToken) authorize(ctx context.Context) context.Context {
	if w.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+w.token)
}
