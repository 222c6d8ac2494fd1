package internal

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

// InspectRow is one rendered store entry on the inspect page.
type InspectRow struct {
	Key          string
	Conversation string
	Timestamp    string
	MessageID    string
	Detail       string
}

// StatsProvider feeds the live gauges shown on top of the page
// (registered users, open connections).
type StatsProvider func() map[string]any

type pageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// StartInspectServer serves a read-only HTML view over the message store,
// for local debugging. It walks the requested key prefix on each request,
// so the page always reflects the current store contents.
func StartInspectServer(db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := pageData{
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
					data.Items = append(data.Items, mapMessageKey(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("localhost:%d", port), mux)
	}()
}

// mapMessageKey splits a "msg:{pair}:{timestamp}:{uuid}" key into display
// columns. Keys under other prefixes fall back to a raw row.
func mapMessageKey(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:          key,
		Conversation: "-",
		Timestamp:    "--:--:--",
		MessageID:    "--------",
		Detail:       "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	if len(parts) >= 4 {
		row.Conversation = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
		}
		row.MessageID = parts[3]
		if len(row.MessageID) > 8 {
			row.MessageID = row.MessageID[:8]
		}
	}
	return row
}
