// Command viewer is a terminal client: it follows every room of a participant,
// prints events as they arrive and sends what is typed on stdin.
//
//	hello everyone          send to the selected room
//	/room <id>              select a room and load its latest messages
//	/read                   mark the selected room read
//	/find <terms> [--room]  search the rooms you can read
//	/rooms                  print the room table
//	/notifs                 print unread notifications
//	/quit
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"space-chat/domain/event"
	"space-chat/infrastructure/ws"
	"space-chat/projection"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	URL     string `envconfig:"SPACECHAT_WS_URL" default:"ws://localhost:8080/ws"`
	Token   string `envconfig:"SPACECHAT_TOKEN" required:"true"`
	Room    string `envconfig:"SPACECHAT_ROOM"`
	Colours bool   `envconfig:"SPACECHAT_COLOURS" default:"true"`
}

type viewer struct {
	cfg      Config
	client   *ws.Client
	inbox    *projection.Inbox
	timeline *projection.Timeline
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Viewer terminated with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	color.Enable = cfg.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, snapshot, err := ws.Dial(ctx, cfg.URL, cfg.Token)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	v := &viewer{cfg: cfg, client: client, inbox: projection.NewInbox(snapshot)}
	color.Greenf("Connected as %s (session %s)\n", snapshot.ParticipantID, snapshot.SessionID)
	v.printRooms()
	if cfg.Room != "" {
		v.selectRoom(ctx, cfg.Room)
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-client.Events():
			if !ok {
				return client.Err()
			}
			v.onEvent(e)
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return nil
			}
			v.onInput(ctx, strings.TrimSpace(line))
		}
	}
}

func (v *viewer) onEvent(e event.Envelope) {
	if _, err := v.inbox.Apply(e); err != nil {
		color.Redf("inbox: %v\n", err)
	}
	if v.timeline == nil {
		return
	}
	applied, err := v.timeline.Apply(e)
	if err != nil {
		color.Redf("timeline: %v\n", err)
		return
	}
	if !applied {
		return
	}
	msg, err := e.DecodeMessage()
	if err != nil {
		return
	}
	v.printMessage(e.Kind, msg)
	if missing := v.timeline.Missing(); len(missing) > 0 {
		color.Yellowf("gap detected, missing seq %v\n", missing)
	}
}

func (v *viewer) onInput(ctx context.Context, line string) {
	if line == "" {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	command, arg, _ := strings.Cut(line, " ")
	switch command {
	case "/rooms":
		v.printRooms()
	case "/room":
		v.selectRoom(callCtx, arg)
	case "/notifs":
		for _, n := range v.inbox.PendingNotifications() {
			color.Cyanf("[%s] %s\n", n.Kind, n.Content)
		}
	case "/read":
		var unread event.UnreadView
		if err := v.client.Call(callCtx, ws.MarkRead, v.roomID(), nil, &unread); err != nil {
			color.Redf("%v\n", err)
			return
		}
		color.Greenf("read up to #%d\n", unread.LastReadSeq)
	case "/find":
		var found []event.MessageView
		if err := v.client.Call(callCtx, ws.SearchMessages, "", ws.SearchPayload{Query: line}, &found); err != nil {
			color.Redf("%v\n", err)
			return
		}
		for _, m := range found {
			v.printMessage(event.MessageSentKind, m)
		}
	default:
		if v.timeline == nil {
			color.Yellowln("select a room first with /room <id>")
			return
		}
		if err := v.client.Call(callCtx, ws.SendMessage, v.roomID(), ws.ContentPayload{Content: line}, nil); err != nil {
			color.Redf("%v\n", err)
		}
	}
}

func (v *viewer) selectRoom(ctx context.Context, roomID string) {
	var latest []event.MessageView
	err := v.client.Call(ctx, ws.History, roomID, ws.HistoryPayload{Latest: true}, &latest)
	if err != nil {
		color.Redf("%v\n", err)
		return
	}
	if v.timeline != nil {
		_ = v.client.Call(ctx, ws.MarkInactive, v.roomID(), nil, nil)
	}
	v.timeline = projection.NewTimeline(roomID)
	v.timeline.Load(latest)
	if err := v.client.Call(ctx, ws.MarkActive, roomID, nil, nil); err != nil {
		color.Redf("%v\n", err)
	}
	color.Bold.Printf("--- %s ---\n", roomID)
	for _, m := range v.timeline.Messages() {
		v.printMessage(event.MessageSentKind, m)
	}
}

func (v *viewer) roomID() string {
	if v.timeline == nil {
		return ""
	}
	return v.timeline.RoomID
}

func (v *viewer) printMessage(kind event.Kind, m event.MessageView) {
	at := m.CreatedAt.Local().Format("15:04")
	switch kind {
	case event.MessageDeletedKind:
		color.Gray.Printf("#%d %s %s: (deleted)\n", m.Seq, at, m.SenderID)
	case event.MessageEditedKind:
		color.Yellow.Printf("#%d %s %s: %s (edited)\n", m.Seq, at, m.SenderID, m.Content)
	default:
		fmt.Printf("#%d %s %s: %s\n", m.Seq, at, color.Cyan.Sprint(m.SenderID), m.Content)
	}
}

func (v *viewer) printRooms() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Name", "Unread", "Last message"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, r := range v.inbox.Rooms() {
		last := "-"
		if r.LastMessage != nil {
			last = r.LastMessage.SenderID + ": " + r.LastMessage.Preview
		}
		table.Append([]string{r.RoomID, r.Name, strconv.Itoa(r.UnreadCount), last})
	}
	table.Render()
	color.Cyanf("%d unread notification(s)\n", v.inbox.UnreadNotifications())
}
