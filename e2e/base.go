package e2e

import (
	"context"
	"fmt"
	"space-chat/auth"
	"space-chat/domain/event"
	"space-chat/infrastructure/grpc/client"
	"space-chat/infrastructure/ws"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	tokens auth.TokenIssuer
}

// SetupSuite loads the environment configuration, the suite only runs against a configured server
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GRPCAddr == "" || s.Config.JWTSecret == "" {
		s.T().Skip("SPACECHAT_GRPC_ADDR and JWT_SECRET are required for the e2e suite")
	}
	s.tokens = auth.NewTokenIssuer(s.Config.JWTSecret)
}

func (s *BaseSuite) header(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// WithProvisioning provides a provisioning client within a contextual test step
func (s *BaseSuite) WithProvisioning(name string, fn func(ctx context.Context, c *client.ProvisioningClient)) {
	s.header(name)
	token, err := s.tokens.GenerateToken("e2e", []string{auth.ServiceRole}, time.Hour)
	s.Require().NoError(err)

	c, err := client.NewProvisioningClient(s.Config.GRPCAddr, token, grpc.WithUnaryInterceptor(s.logCall))
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GRPCAddr)
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	fn(ctx, c)
}

// Connect opens a websocket session for participant p, closed with the test.
func (s *BaseSuite) Connect(p string) (*ws.Client, event.SnapshotView) {
	token, err := s.tokens.GenerateToken(p, nil, time.Hour)
	s.Require().NoError(err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, snapshot, err := ws.Dial(ctx, s.Config.WSURL, token)
	s.Require().NoError(err, "Failed to connect to websocket at "+s.Config.WSURL)
	s.T().Cleanup(func() { _ = c.Close() })
	return c, snapshot
}

// Await drains events until one matches or the timeout elapses.
func (s *BaseSuite) Await(c *ws.Client, timeout time.Duration, match func(event.Envelope) bool) event.Envelope {
	deadline := time.After(timeout)
	for {
		select {
		case e, ok := <-c.Events():
			s.Require().True(ok, "connection closed: %v", c.Err())
			if match(e) {
				return e
			}
		case <-deadline:
			s.Require().FailNow("expected event never arrived")
		}
	}
}

func (s *BaseSuite) logCall(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

	// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
	if s.Config.DebugJSON {
		fmt.Fprintln(&logBuilder, "\nREQUEST:")
		fmt.Fprintln(&logBuilder, indent(req))
		if err != nil {
			fmt.Fprintln(&logBuilder, "ERROR:", err)
		} else {
			fmt.Fprintln(&logBuilder, "RESPONSE:")
			fmt.Fprintln(&logBuilder, indent(reply))
		}
	}
	s.T().Log(logBuilder.String())
	return err
}

func indent(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(raw)
}
