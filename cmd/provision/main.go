// Command provision drives the provisioning API the way booking or boards would.
//
//	provision create-room -name "desk 12" alice bob
//	provision join -room <id> carol
//	provision leave -room <id> bob
//	provision notify -to alice -kind board-comment "new comment on your post"
//	provision history -room <id> [-after 10] [-limit 50]
//	provision unread -room <id> alice
//	provision rooms alice
//	provision token alice
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"space-chat/auth"
	"space-chat/infrastructure/grpc/api"
	"space-chat/infrastructure/grpc/client"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	Addr          string        `envconfig:"SPACECHAT_GRPC_ADDR" default:"localhost:9090"`
	Token         string        `envconfig:"SPACECHAT_SERVICE_TOKEN"`
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	TokenDuration time.Duration `envconfig:"AUTH_TOKEN_DURATION" default:"1h"`
	Timeout       time.Duration `envconfig:"SPACECHAT_TIMEOUT" default:"5s"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "provision: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if len(args) == 0 {
		return fmt.Errorf("missing command, see the package documentation")
	}
	command, args := args[0], args[1:]

	// token mints a participant token for the websocket, nothing is called
	if command == "token" {
		return printToken(cfg, args)
	}

	token, err := serviceToken(cfg)
	if err != nil {
		return err
	}
	c, err := client.NewProvisioningClient(cfg.Addr, token)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	flags := flag.NewFlagSet(command, flag.ContinueOnError)
	room := flags.String("room", "", "room id")
	name := flags.String("name", "", "room name")
	to := flags.String("to", "", "notification recipient")
	kind := flags.String("kind", "generic", "notification kind")
	after := flags.Uint64("after", 0, "history: only messages after this seq")
	limit := flags.Int("limit", 50, "history: page size")
	if err := flags.Parse(args); err != nil {
		return err
	}

	switch command {
	case "create-room":
		r, err := c.CreateRoom(ctx, &api.CreateRoomRequest{Name: *name, Participants: flags.Args()})
		if err != nil {
			return err
		}
		printRoom(r)
	case "join", "leave":
		if flags.NArg() != 1 {
			return fmt.Errorf("%s needs exactly one participant", command)
		}
		req := &api.MembershipRequest{RoomID: *room, ParticipantID: flags.Arg(0)}
		call := c.JoinRoom
		if command == "leave" {
			call = c.LeaveRoom
		}
		r, err := call(ctx, req)
		if err != nil {
			return err
		}
		printRoom(r)
	case "notify":
		resp, err := c.PublishNotification(ctx, &api.PublishNotificationRequest{
			RecipientID: *to, Kind: *kind, Content: strings.Join(flags.Args(), " "),
		})
		if err != nil {
			return err
		}
		fmt.Printf("notification %s sent to %s\n", resp.Notification.ID, resp.Notification.RecipientID)
	case "history":
		resp, err := c.GetHistory(ctx, &api.GetHistoryRequest{RoomID: *room, AfterSeq: *after, Limit: *limit})
		if err != nil {
			return err
		}
		table := newTable("Seq", "Sender", "State", "At", "Content")
		for _, m := range resp.Messages {
			table.Append([]string{strconv.FormatUint(m.Seq, 10), m.SenderID, m.State, m.CreatedAt.Format(time.RFC3339), m.Content})
		}
		table.Render()
	case "unread":
		if flags.NArg() != 1 {
			return fmt.Errorf("unread needs exactly one participant")
		}
		resp, err := c.GetUnread(ctx, &api.GetUnreadRequest{RoomID: *room, ParticipantID: flags.Arg(0)})
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d unread, read up to #%d\n", flags.Arg(0), resp.Unread.UnreadCount, resp.Unread.LastReadSeq)
	case "rooms":
		if flags.NArg() != 1 {
			return fmt.Errorf("rooms needs exactly one participant")
		}
		resp, err := c.ListRooms(ctx, &api.ListRoomsRequest{ParticipantID: flags.Arg(0)})
		if err != nil {
			return err
		}
		table := newTable("Room", "Membership")
		for _, id := range resp.Active {
			table.Append([]string{id, "active"})
		}
		for _, id := range resp.Left {
			table.Append([]string{id, "left"})
		}
		table.Render()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

// serviceToken prefers a provided token, otherwise mints one with the shared secret.
func serviceToken(cfg Config) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("set SPACECHAT_SERVICE_TOKEN or JWT_SECRET")
	}
	return auth.NewTokenIssuer(cfg.JWTSecret).GenerateToken("provision-cli", []string{auth.ServiceRole}, cfg.TokenDuration)
}

func printToken(cfg Config, args []string) error {
	if len(args) != 1 || cfg.JWTSecret == "" {
		return fmt.Errorf("token needs one participant and JWT_SECRET")
	}
	token, err := auth.NewTokenIssuer(cfg.JWTSecret).GenerateToken(args[0], nil, cfg.TokenDuration)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func printRoom(r *api.RoomResponse) {
	table := newTable("Room", "Name", "Participants", "Left", "Last seq")
	table.Append([]string{
		r.RoomID, r.Name,
		strings.Join(r.Participants, ","), strings.Join(r.LeftParticipants, ","),
		strconv.FormatUint(r.LastSeq, 10),
	})
	table.Render()
}

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}
