package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"space-chat/auth"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"space-chat/internal/testkit"
	"space-chat/observability"
	"space-chat/services"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// frame is a loose decoding of anything the server writes.
type frame struct {
	Type    event.FrameType  `json:"type"`
	ID      string           `json:"id"`
	OK      bool             `json:"ok"`
	Error   *ErrorBody       `json:"error"`
	Result  json.RawMessage  `json:"result"`
	Topic   event.Topic      `json:"topic"`
	Kind    event.Kind       `json:"kind"`
	Seq     uint64           `json:"seq"`
	Payload json.RawMessage  `json:"payload"`
	Rooms   []event.RoomView `json:"rooms"`
}

type fixture struct {
	server *httptest.Server
	tokens auth.TokenIssuer
	room   domain.Room
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	o := testkit.NewOrchestrator(t, testkit.Options())
	room, err := o.CreateRoom(context.Background(), "R1", []domain.ParticipantID{"alice", "bob"})
	require.NoError(t, err)

	tokens := auth.NewTokenIssuer("ws-secret")
	handler := NewHandler(log, services.NewChatService(o), tokens, Config{
		PongWait:     time.Second,
		WriteWait:    time.Second,
		MaxFrameSize: 64 << 10,
	})
	monitoring := observability.NewMonitoringManager(log, time.Second).WithGauges(o)
	server := httptest.NewServer(NewRouter(log, handler, monitoring))
	t.Cleanup(server.Close)
	return fixture{server: server, tokens: tokens, room: room}
}

func (f fixture) dial(t *testing.T, p domain.ParticipantID) *websocket.Conn {
	t.Helper()
	token, err := f.tokens.GenerateToken(string(p), nil, time.Hour)
	require.NoError(t, err)
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (f fixture) wsURL() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

// readUntil returns the first frame matching, skipping the others.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	for range 20 {
		if f := readFrame(t, conn); match(f) {
			return f
		}
	}
	require.FailNow(t, "expected frame never arrived")
	return frame{}
}

func send(t *testing.T, conn *websocket.Conn, cmd CommandFrame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
}

func isReply(id string) func(frame) bool {
	return func(f frame) bool { return f.Type == event.ReplyFrame && f.ID == id }
}

func isEvent(kind event.Kind) func(frame) bool {
	return func(f frame) bool { return f.Type == event.EventFrame && f.Kind == kind }
}

func TestHandler_Rejects_Missing_Or_Invalid_Token(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(), nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(f.wsURL()+"?token=garbage", nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_Snapshot_Then_Message_Flow(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	// Given alice with a header token and bob with a query token
	alice := f.dial(t, "alice")
	bobToken, err := f.tokens.GenerateToken("bob", nil, time.Hour)
	req.NoError(err)
	bob, _, err := websocket.DefaultDialer.Dial(f.wsURL()+"?token="+bobToken, nil)
	req.NoError(err)
	t.Cleanup(func() { _ = bob.Close() })

	// Then the first frame is the snapshot
	snapshot := readFrame(t, alice)
	req.Equal(event.SnapshotFrame, snapshot.Type)
	req.Len(snapshot.Rooms, 1)
	req.Equal(string(f.room.ID), snapshot.Rooms[0].RoomID)
	req.Equal(event.SnapshotFrame, readFrame(t, bob).Type)

	// When alice sends a message
	content, err := json.Marshal(ContentPayload{Content: "Hi Bob"})
	req.NoError(err)
	send(t, alice, CommandFrame{ID: "c1", Command: SendMessage, RoomID: string(f.room.ID), Payload: content})

	// Then she gets an ok reply carrying the seq
	reply := readUntil(t, alice, isReply("c1"))
	req.True(reply.OK)
	var sent event.MessageView
	req.NoError(json.Unmarshal(reply.Result, &sent))
	req.Equal(uint64(1), sent.Seq)

	// And bob receives the room event then his unread count
	received := readUntil(t, bob, isEvent(event.MessageSentKind))
	req.Equal(event.RoomTopic(f.room.ID), received.Topic)
	req.Equal(uint64(1), received.Seq)
	unread := readUntil(t, bob, isEvent(event.UnreadUpdatedKind))
	var view event.UnreadView
	req.NoError(json.Unmarshal(unread.Payload, &view))
	req.Equal(1, view.UnreadCount)

	// When bob marks the room read
	send(t, bob, CommandFrame{ID: "c2", Command: MarkRead, RoomID: string(f.room.ID)})
	reply = readUntil(t, bob, isReply("c2"))
	req.True(reply.OK)
	req.NoError(json.Unmarshal(reply.Result, &view))
	req.Zero(view.UnreadCount)
	req.Equal(uint64(1), view.LastReadSeq)

	// And he asks for the history
	send(t, bob, CommandFrame{ID: "c3", Command: History, RoomID: string(f.room.ID)})
	reply = readUntil(t, bob, isReply("c3"))
	var messages []event.MessageView
	req.NoError(json.Unmarshal(reply.Result, &messages))
	req.Len(messages, 1)
	req.Equal("Hi Bob", messages[0].Content)
}

func TestHandler_Command_Errors(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	carol := f.dial(t, "carol")
	req.Equal(event.SnapshotFrame, readFrame(t, carol).Type)

	tests := []struct {
		description string
		command     CommandFrame
		code        errors.Code
	}{
		{"Should reject an unknown command", CommandFrame{ID: "e1", Command: "shout"}, errors.CodeInvalidArgument},
		{"Should forbid writing in a room carol is not part of", CommandFrame{ID: "e2", Command: SendMessage, RoomID: string(f.room.ID), Payload: json.RawMessage(`{"content":"hi"}`)}, errors.CodeForbidden},
		{"Should reject an empty message", CommandFrame{ID: "e3", Command: SendMessage, RoomID: string(f.room.ID), Payload: json.RawMessage(`{"content":""}`)}, errors.CodeInvalidArgument},
		{"Should reject a malformed message id", CommandFrame{ID: "e4", Command: DeleteMessage, Payload: json.RawMessage(`{"messageId":"nope"}`)}, errors.CodeInvalidArgument},
		{"Should report an unknown message", CommandFrame{ID: "e5", Command: DeleteMessage, Payload: json.RawMessage(`{"messageId":"6f1c1d6e-4f44-4b0f-9d3b-5d6f8c0b8a11"}`)}, errors.CodeNotFound},
		{"Should report an unknown room", CommandFrame{ID: "e6", Command: MarkActive, RoomID: string(domain.NewRoomID())}, errors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			send(t, carol, tt.command)
			reply := readUntil(t, carol, isReply(tt.command.ID))
			require.False(t, reply.OK)
			require.NotNil(t, reply.Error)
			require.Equal(t, tt.code, reply.Error.Code)
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/healthz")
	req.NoError(err)
	defer func() { _ = resp.Body.Close() }()
	req.Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Status     string                        `json:"status"`
		Monitoring observability.MonitoringStats `json:"monitoring"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal("ok", body.Status)
}
