package internal

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"batepapo/repositories"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key    string
	Type   string
	Time   string
	From   string
	To     string
	Detail string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

// StartDebugServer serves a read-only view of the raw store rows plus
// process stats, for local inspection while the service runs.
func StartDebugServer(db *badger.DB, port int, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := struct {
			Prefix string
			Items  []InspectRow
			Stats  map[string]any
		}{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
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

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// ChatMapper decodes participant and message rows into readable columns.
func ChatMapper(key string, val []byte) InspectRow {
	switch {
	case strings.HasPrefix(key, "participant:"):
		participant, err := repositories.DecodeParticipant(val)
		if err != nil {
			return DefaultMapper(key, val)
		}
		return InspectRow{
			Key:    key,
			Type:   "PARTICIPANT",
			Time:   participant.LastSeen.Format("15:04:05"),
			From:   participant.Name,
			To:     "-",
			Detail: "last seen " + participant.LastSeen.Format(time.RFC3339),
		}
	case strings.HasPrefix(key, "msg:"):
		message, err := repositories.DecodeMessage(val)
		if err != nil {
			return DefaultMapper(key, val)
		}
		return InspectRow{
			Key:    key,
			Type:   strings.ToUpper(string(message.Kind)),
			Time:   message.At.Format("15:04:05"),
			From:   message.From,
			To:     message.To,
			Detail: message.Text,
		}
	default:
		return DefaultMapper(key, val)
	}
}

func DefaultMapper(key string, val []byte) InspectRow {
	return InspectRow{
		Key:    key,
		Type:   "RAW",
		Time:   "--:--:--",
		From:   "-",
		To:     "-",
		Detail: "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
}
