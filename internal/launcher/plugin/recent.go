package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/boltdb/bolt"

	"github.com/kestrel-run/kestrel/internal/launcher/logging"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

// RecentPluginName is the descriptor name under which the internal recent
// plugin is registered (SPEC_FULL.md §C.2, supplementing the distilled
// spec's dropped RecentUseStorage).
const RecentPluginName = "recent"

var recentBucket = []byte("recent")

// recentEntry is the BoltDB-persisted record of one activated exec.
type recentEntry struct {
	Exec     string `json:"exec"`
	Name     string `json:"name"`
	Count    int64  `json:"count"`
	LastUsed int64  `json:"last_used"`
}

// OpenStore opens (creating if absent) the BoltDB file backing the recent
// plugin at path, ensuring its bucket exists.
func OpenStore(path string) (*bolt.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recentBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// RecordActivation increments exec's usage count and refreshes its
// timestamp. The orchestrator calls this whenever any plugin's result is
// activated, not just the recent plugin's own — recency is a property of
// the whole launcher, not of one plugin (SPEC_FULL.md §C.2).
func RecordActivation(db *bolt.DB, exec, name string) error {
	if db == nil || exec == "" {
		return nil
	}

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recentBucket)

		var entry recentEntry
		if raw := b.Get([]byte(exec)); raw != nil {
			if err := json.Unmarshal(raw, &entry); err != nil {
				logging.Warn("[recent] corrupt record for %s, resetting: %v", exec, err)
				entry = recentEntry{}
			}
		}

		entry.Exec = exec
		entry.Name = name
		entry.Count++
		entry.LastUsed = time.Now().Unix()

		raw, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put([]byte(exec), raw)
	})
}

func loadRecentEntries(db *bolt.DB) ([]recentEntry, error) {
	var entries []recentEntry
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(recentBucket)
		return b.ForEach(func(_, v []byte) error {
			var e recentEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return nil // skip corrupt record, don't abort the whole scan
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}

// recentMax bounds how many entries the recent plugin ever contributes to
// one search, independent of the orchestrator's own truncation (spec §4.7).
const recentMax = 10

// recentHandler is the in-process Handler backing the recent plugin: it
// lists previously activated execs ordered by frequency, then recency,
// optionally filtered by the query text.
type recentHandler struct {
	db  *bolt.DB
	out func(wire.PluginResponse)
}

// NewRecentHandler builds the recent plugin's Handler over db.
func NewRecentHandler(db *bolt.DB, emit func(wire.PluginResponse)) Handler {
	return &recentHandler{db: db, out: emit}
}

func (h *recentHandler) Name() string { return RecentPluginName }

func (h *recentHandler) Search(ctx context.Context, query string) {
	h.out(wire.NewClearResponse())

	entries, err := loadRecentEntries(h.db)
	if err != nil {
		logging.Error("[recent] %v", err)
		h.out(wire.NewFinishedResponse())
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].LastUsed > entries[j].LastUsed
	})

	needle := strings.ToLower(strings.TrimSpace(query))
	var id wire.Indice
	for _, e := range entries {
		if id >= recentMax {
			break
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) &&
			!strings.Contains(strings.ToLower(e.Exec), needle) {
			continue
		}

		icon := wire.NewIconName("document-open-recent")
		h.out(wire.NewAppendResponse(wire.PluginSearchResult{
			ID:          id,
			Name:        e.Name,
			Description: e.Exec,
			Exec:        e.Exec,
			Icon:        &icon,
		}))
		id++
	}

	h.out(wire.NewFinishedResponse())
}

func (h *recentHandler) Activate(ctx context.Context, id wire.Indice) {
	entries, err := loadRecentEntries(h.db)
	if err != nil {
		logging.Error("[recent] %v", err)
		h.out(wire.NewPluginCloseResponse())
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].LastUsed > entries[j].LastUsed
	})

	if int(id) >= len(entries) {
		h.out(wire.NewPluginCloseResponse())
		return
	}

	e := entries[id]
	h.out(wire.NewPluginDesktopEntryResponse(e.Exec, wire.GpuDefault))
}

func (h *recentHandler) ActivateContext(ctx context.Context, id, context wire.Indice) {}
func (h *recentHandler) Complete(ctx context.Context, id wire.Indice)                 {}
func (h *recentHandler) Context(ctx context.Context, id wire.Indice) {
	h.out(wire.NewPluginContextResponse(id, nil))
}
func (h *recentHandler) Quit(ctx context.Context, id wire.Indice) {}
func (h *recentHandler) Interrupt(ctx context.Context)            {}
func (h *recentHandler) Exit()                                    {}
