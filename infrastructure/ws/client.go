package ws

import (
	"context"
	"fmt"
	"net/http"
	"space-chat/domain/event"
	"space-chat/errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// ReplyError is a rejected command. It unwraps to the error category of its code.
type ReplyError struct {
	Code    errors.Code
	Message string
}

func (e *ReplyError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func (e *ReplyError) Unwrap() error { return errors.CategoryOf(e.Code) }

type inboundReply struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *ErrorBody      `json:"error"`
}

// Client speaks the websocket protocol: commands are correlated with their replies,
// everything else is delivered on Events in arrival order.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[string]chan inboundReply
	closed  bool
	err     error

	events chan event.Envelope
	done   chan struct{}
}

// Dial connects with a bearer token and waits for the snapshot.
func Dial(ctx context.Context, url, token string) (*Client, event.SnapshotView, error) {
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, event.SnapshotView{}, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, event.SnapshotView{}, fmt.Errorf("dial %s: %w", url, err)
	}

	var snapshot event.SnapshotView
	if err := conn.ReadJSON(&snapshot); err != nil {
		_ = conn.Close()
		return nil, event.SnapshotView{}, fmt.Errorf("reading snapshot: %w", err)
	}
	if snapshot.Type != event.SnapshotFrame {
		_ = conn.Close()
		return nil, event.SnapshotView{}, fmt.Errorf("expected a snapshot, got %q: %w", snapshot.Type, errors.ErrInvalidPayload)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[string]chan inboundReply),
		events:  make(chan event.Envelope, 256),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, snapshot, nil
}

// Events must be drained: replies are read on the same loop and wait behind a full buffer.
// The channel is closed once the connection ends, Err tells why.
func (c *Client) Events() <-chan event.Envelope { return c.events }

func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Call sends a command and decodes the result into out, which may be nil.
func (c *Client) Call(ctx context.Context, command, roomID string, payload, out any) error {
	frame := CommandFrame{
		ID:      strconv.FormatUint(c.nextID.Add(1), 10),
		Command: command,
		RoomID:  roomID,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		frame.Payload = raw
	}

	wait := make(chan inboundReply, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.ErrSessionClosed
	}
	c.pending[frame.ID] = wait
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, frame.ID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(frame)
	c.writeMu.Unlock()
	if err != nil {
		return err
	}

	select {
	case reply := <-wait:
		if !reply.OK {
			if reply.Error == nil {
				return &ReplyError{Code: errors.CodeInternal}
			}
			return &ReplyError{Code: reply.Error.Code, Message: reply.Error.Message}
		}
		if out == nil || len(reply.Result) == 0 {
			return nil
		}
		return json.Unmarshal(reply.Result, out)
	case <-c.done:
		return errors.Join(errors.ErrSessionClosed, c.Err())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.events)
		close(c.done)
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		var header struct {
			Type event.FrameType `json:"type"`
		}
		if err := json.Unmarshal(data, &header); err != nil {
			continue
		}
		switch header.Type {
		case event.ReplyFrame:
			var reply inboundReply
			if err := json.Unmarshal(data, &reply); err != nil {
				continue
			}
			c.mu.Lock()
			wait, ok := c.pending[reply.ID]
			c.mu.Unlock()
			if ok {
				wait <- reply
			}
		case event.EventFrame:
			var envelope event.Envelope
			if err := json.Unmarshal(data, &envelope); err != nil {
				continue
			}
			c.events <- envelope
		}
	}
}
