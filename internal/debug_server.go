package internal

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"space-chat/repositories"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

//go:embed inspect.html
var templatesFS embed.FS

// maxInspectRows keeps a page readable when a prefix matches a whole ledger.
const maxInspectRows = 500

type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Namespace string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix   string
	Prefixes []string
	Items    []InspectRow
	Stats    map[string]any
}

var prefixes = []string{
	repositories.RoomPrefix,
	repositories.MemberPrefix,
	repositories.LeftPrefix,
	repositories.MessagePrefix,
	repositories.MessageIDPrefix,
	repositories.CursorPrefix,
	repositories.NotificationPrefix,
	repositories.NotificationIDKey,
}

// StartDebugServer serves a read-only browser over the badger keyspace.
// It is meant for local debugging only, never expose it publicly.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) *http.Server {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = repositories.RoomPrefix
		}

		data := PageData{
			Prefix:   prefix,
			Prefixes: prefixes,
			Stats:    make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)) && len(data.Items) < maxInspectRows; it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Debug server stopped", "error", err)
		}
	}()
	return server
}

// ShutdownDebugServer gives in-flight pages a second to complete.
func ShutdownDebugServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}

func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.SplitN(key, ":", 3)
	row := InspectRow{
		Key:       key,
		Type:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Namespace: parts[0],
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	if len(parts) >= 2 {
		row.EntityID = short(parts[1])
	}
	return row
}

// KeyspaceMapper decodes each record of the chat keyspace into a readable row.
func KeyspaceMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)
	var err error
	switch {
	case strings.HasPrefix(key, repositories.RoomPrefix):
		var r repositories.DiskRoom
		if err = json.Unmarshal(val, &r); err == nil {
			row.Type = "ROOM"
			row.Timestamp = clock(r.CreatedAt)
			row.Detail = fmt.Sprintf("%q seq=%d members=%s left=%s",
				r.Name, r.LastSeq, strings.Join(r.Participants, ","), strings.Join(r.LeftParticipants, ","))
		}
	case strings.HasPrefix(key, repositories.MessageIDPrefix):
		var ref repositories.DiskMessageRef
		if err = json.Unmarshal(val, &ref); err == nil {
			row.Type = "MSG-REF"
			row.Detail = fmt.Sprintf("room=%s seq=%d", short(ref.RoomID), ref.Seq)
		}
	case strings.HasPrefix(key, repositories.MessagePrefix):
		var m repositories.DiskMessage
		if err = json.Unmarshal(val, &m); err == nil {
			row.Type = "MESSAGE"
			row.Timestamp = clock(m.CreatedAt)
			row.Detail = fmt.Sprintf("#%d %s: %s", m.Seq, m.SenderID, m.Content)
			if m.DeletedAt != nil {
				row.Type = "DELETED"
			} else if m.EditedAt != nil {
				row.Type = "EDITED"
			}
		}
	case strings.HasPrefix(key, repositories.CursorPrefix):
		var c repositories.DiskCursor
		if err = json.Unmarshal(val, &c); err == nil {
			row.Type = "CURSOR"
			row.Timestamp = clock(c.UpdatedAt)
			row.Detail = fmt.Sprintf("%s read=%d unread=%d", c.ParticipantID, c.LastReadSeq, c.UnreadCount)
		}
	case strings.HasPrefix(key, repositories.NotificationIDKey):
		row.Type = "NOTIF-REF"
		row.Detail = string(val)
	case strings.HasPrefix(key, repositories.NotificationPrefix):
		var n repositories.DiskNotification
		if err = json.Unmarshal(val, &n); err == nil {
			row.Type = "NOTIF"
			row.Timestamp = clock(n.CreatedAt)
			row.Detail = fmt.Sprintf("[%s] read=%t %s", n.Kind, n.IsRead, n.Content)
		}
	case strings.HasPrefix(key, repositories.MemberPrefix), strings.HasPrefix(key, repositories.LeftPrefix):
		row.Type = "INDEX"
		row.Detail = key[strings.LastIndex(key, ":")+1:]
	}
	if err != nil {
		row.Detail = "Error: unmarshal failed"
	}
	return row
}

func clock(t time.Time) string { return t.Format("15:04:05") }

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
