// Package ws exposes the chat core to clients over a persistent websocket.
// One read goroutine executes commands in order, one write goroutine owns the socket writes.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"space-chat/auth"
	"space-chat/domain"
	"space-chat/domain/event"
	"space-chat/errors"
	"space-chat/runtime"
	"space-chat/services"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type Config struct {
	PongWait     time.Duration
	WriteWait    time.Duration
	MaxFrameSize int64
}

// pingPeriod must stay below PongWait so a live peer always answers in time.
func (c Config) pingPeriod() time.Duration { return c.PongWait * 9 / 10 }

type Handler struct {
	log      *slog.Logger
	chat     services.IChatService
	tokens   auth.TokenIssuer
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHandler(log *slog.Logger, chat services.IChatService, tokens auth.TokenIssuer, cfg Config) *Handler {
	return &Handler{
		log:    log,
		chat:   chat,
		tokens: tokens,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers of the platform front-end live on other origins, the token is the gate.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWebSocket authenticates the request, upgrades it, and blocks for the lifetime of the connection.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	participant, err := h.identify(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Code: errors.CodeOf(err), Message: err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already replied with an HTTP error
		h.log.Warn("Websocket upgrade failed", "participant", participant, "error", err)
		return
	}

	ctx := c.Request.Context()
	session, snapshot, err := h.chat.Connect(ctx, participant)
	if err != nil {
		h.log.Error("Connect failed", "participant", participant, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, errors.PublicMessage(err)),
			time.Now().Add(h.cfg.WriteWait))
		_ = conn.Close()
		return
	}

	connection := &connection{
		log:         h.log.With("session", session.ID(), "participant", participant),
		cfg:         h.cfg,
		conn:        conn,
		chat:        h.chat,
		session:     session,
		participant: participant,
		replies:     make(chan ReplyFrame, 16),
		readerDone:  make(chan struct{}),
		writerDone:  make(chan struct{}),
	}
	connection.log.Info("Client connected", "rooms", len(snapshot.Rooms))

	go connection.writePump(snapshot)
	connection.readPump(context.WithoutCancel(ctx))
	close(connection.readerDone)

	if err := h.chat.Disconnect(session.ID()); err != nil && !errors.Is(err, errors.ErrSessionNotFound) {
		connection.log.Warn("Disconnect failed", "error", err)
	}
	<-connection.writerDone
	connection.log.Info("Client disconnected")
}

func (h *Handler) identify(c *gin.Context) (domain.ParticipantID, error) {
	raw := c.Query("token")
	if raw == "" {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			return "", err
		}
		raw = token
	}
	claims, err := h.tokens.ValidateToken(raw)
	if err != nil {
		return "", err
	}
	return domain.ParticipantID(claims.UserID), nil
}

type connection struct {
	log         *slog.Logger
	cfg         Config
	conn        *websocket.Conn
	chat        services.IChatService
	session     *runtime.Session
	participant domain.ParticipantID
	replies     chan ReplyFrame
	readerDone  chan struct{}
	writerDone  chan struct{}
}

// readPump executes commands in arrival order until the peer goes away or the writer stops.
func (c *connection) readPump(ctx context.Context) {
	c.conn.SetReadLimit(c.cfg.MaxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("Error reading frame", "error", err)
			}
			return
		}

		var frame CommandFrame
		var reply ReplyFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			reply = errorReply("", errors.Join(errors.ErrInvalidArgument, err))
		} else {
			reply = c.execute(ctx, frame)
		}

		select {
		case c.replies <- reply:
		case <-c.writerDone:
			return
		}
	}
}

// writePump sends the snapshot first, then replies and session events, and keeps the peer alive.
func (c *connection) writePump(snapshot runtime.Snapshot) {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.writerDone)
	}()

	view := event.NewSnapshotView(snapshot.SessionID, snapshot.ParticipantID, snapshot.Rooms, snapshot.UnreadNotifications, snapshot.Notifications)
	if err := c.writeJSON(view); err != nil {
		c.log.Warn("Snapshot write failed", "error", err)
		return
	}

	for {
		select {
		case reply := <-c.replies:
			if err := c.writeJSON(reply); err != nil {
				return
			}

		case e := <-c.session.Events():
			payload, err := event.Encode(e)
			if err != nil {
				c.log.Error("Event encoding failed", "kind", e.Kind(), "error", err)
				continue
			}
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-c.readerDone:
			return

		case <-c.session.Done():
			select {
			case <-c.readerDone:
				return
			default:
			}
			// Evicted for being too slow: the client has to reconnect and resync
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, errors.ErrSlowConsumer.Error()),
				time.Now().Add(c.cfg.WriteWait))
			return

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, payload)
}

func (c *connection) write(messageType int, payload []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	return c.conn.WriteMessage(messageType, payload)
}
