// Package collection maintains the in-memory projection of the vault that
// backs the board views.
//
// The collection is a cache: the documents themselves are the source of
// truth. It is kept current by the three mutation verbs (Insert, Update,
// Delete), which apply optimistically and drive the corresponding store
// operation, and by the refetch paths fed from the file watcher when a
// note changes outside this process.
package collection

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/reboard/internal/apperr"
	"github.com/starford/reboard/internal/models"
	"github.com/starford/reboard/internal/snooze"
	"github.com/starford/reboard/internal/storage"
)

// EventKind identifies a collection change.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	EventReset   EventKind = "reset"
)

// Event describes one collection change for subscribers. Name and Path are
// empty for reset events.
type Event struct {
	Kind EventKind
	Name string
	Path string
}

// Collection is the live record map, keyed by note name. Records must only
// be mutated through the verbs and refetch paths below.
type Collection struct {
	store   storage.Provider
	snoozes *snooze.Store
	logger  *slog.Logger

	mu      sync.RWMutex
	records map[string]models.FileRecord

	lmu       sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

// New creates an empty collection over the given store.
func New(store storage.Provider, snoozes *snooze.Store, logger *slog.Logger) *Collection {
	return &Collection{
		store:     store,
		snoozes:   snoozes,
		logger:    logger,
		records:   make(map[string]models.FileRecord),
		listeners: make(map[int]func(Event)),
	}
}

// Subscribe registers a listener for collection events and returns its
// unsubscribe function. Listeners are invoked synchronously after the
// in-memory state has changed.
func (c *Collection) Subscribe(fn func(Event)) func() {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.lmu.Unlock()
	return func() {
		c.lmu.Lock()
		delete(c.listeners, id)
		c.lmu.Unlock()
	}
}

func (c *Collection) notify(ev Event) {
	c.lmu.Lock()
	fns := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lmu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// buildRecord projects one listed note into a FileRecord. A failed snooze
// read is logged and leaves the record visible without snooze info, so one
// unreadable note cannot take a board down.
func (c *Collection) buildRecord(meta models.NoteMetadata) models.FileRecord {
	rec := models.FileRecord{
		Path:  meta.Path,
		Name:  path.Base(meta.Path),
		Mtime: meta.UpdatedAt.UnixMilli(),
	}
	entry, err := c.snoozes.GetEntry(meta.Path)
	if err != nil {
		c.logger.Warn("collection: snooze read failed",
			slog.String("path", meta.Path),
			slog.String("error", err.Error()))
		return rec
	}
	if entry != nil {
		rec.Snooze = models.SnoozeInfo{Interval: entry.Interval, ExpireTime: entry.Expire}
	}
	return rec
}

// Load bulk-loads every qualifying note from the store. Name collisions
// keep the record with the newer mtime; the loser is logged, not hidden
// silently.
func (c *Collection) Load() error {
	metas, err := c.store.List("")
	if err != nil {
		return fmt.Errorf("collection: load: %w", err)
	}

	records := make(map[string]models.FileRecord, len(metas))
	for _, meta := range metas {
		rec := c.buildRecord(meta)
		if prev, ok := records[rec.Name]; ok {
			c.logger.Warn("collection: duplicate note name",
				slog.String("name", rec.Name),
				slog.String("kept", rec.Path),
				slog.String("shadowed", prev.Path))
			if prev.Mtime > rec.Mtime {
				continue
			}
		}
		records[rec.Name] = rec
	}

	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
	c.notify(Event{Kind: EventReset})
	return nil
}

// Refetch reloads everything from the store. Used by the watcher's
// reconcile pass and available to callers as an explicit refresh.
func (c *Collection) Refetch() error {
	return c.Load()
}

// Get returns the record for a note name.
func (c *Collection) Get(name string) (models.FileRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[name]
	return rec, ok
}

// Snapshot returns a copy of all records.
func (c *Collection) Snapshot() []models.FileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.FileRecord, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	return out
}

// Names returns the set of note names currently in the collection.
func (c *Collection) Names() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]struct{}, len(c.records))
	for name := range c.records {
		out[name] = struct{}{}
	}
	return out
}

// InFolder reports whether a record belongs to the folder scope. The empty
// folder is the vault root and holds the notes without a path separator;
// any other folder owns every record under its prefix.
func InFolder(rec models.FileRecord, folder string) bool {
	if folder == "" {
		return !strings.Contains(rec.Path, "/")
	}
	return strings.HasPrefix(rec.Path, folder+"/")
}

// Board returns the folder's records sorted by mtime descending. Unless
// includeSnoozed is set, currently-snoozed records are filtered out.
func (c *Collection) Board(folder string, includeSnoozed bool, now time.Time) []models.FileRecord {
	c.mu.RLock()
	out := make([]models.FileRecord, 0)
	for _, rec := range c.records {
		if !InFolder(rec, folder) {
			continue
		}
		if !includeSnoozed && rec.IsSnoozed(now) {
			continue
		}
		out = append(out, rec)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Mtime != out[j].Mtime {
			return out[i].Mtime > out[j].Mtime
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Insert creates the note in the store and adds its record. The caller is
// responsible for a collision-free path (see boardservice's naming
// policy). If the record carries snooze info it is persisted immediately.
func (c *Collection) Insert(rec models.FileRecord) error {
	rec.Name = path.Base(rec.Path)

	c.mu.Lock()
	if _, ok := c.records[rec.Name]; ok {
		c.mu.Unlock()
		return fmt.Errorf("collection: insert %s: %w", rec.Name, apperr.ErrAlreadyExists)
	}
	c.mu.Unlock()

	if err := c.store.Create(rec.Path, nil); err != nil {
		return err
	}
	var snoozeErr error
	if !rec.Snooze.IsZero() {
		snoozeErr = c.snoozes.SetEntry(rec.Path, rec.Snooze.Interval, rec.Snooze.ExpireTime)
		if snoozeErr != nil {
			// The file exists either way; keep the record but without
			// state the store never accepted.
			rec.Snooze = models.SnoozeInfo{}
		}
	}
	if st, err := c.store.Stat(rec.Path); err == nil {
		rec.Mtime = st.UpdatedAt.UnixMilli()
	}

	c.mu.Lock()
	c.records[rec.Name] = rec
	c.mu.Unlock()
	c.notify(Event{Kind: EventCreated, Name: rec.Name, Path: rec.Path})
	return snoozeErr
}

// Update applies mutate to a draft copy of the named record, diffs it
// against the original, and issues the matching store operations: a rename
// when the path changed, a snooze set/clear when the snooze info changed.
// The in-memory record is updated optimistically and rolled back if a
// store call fails, so the collection never keeps state the store
// rejected.
func (c *Collection) Update(name string, mutate func(*models.FileRecord)) (models.FileRecord, error) {
	c.mu.Lock()
	orig, ok := c.records[name]
	if !ok {
		c.mu.Unlock()
		return models.FileRecord{}, fmt.Errorf("collection: update %s: %w", name, apperr.ErrUnknownNote)
	}

	draft := orig
	mutate(&draft)
	draft.Name = orig.Name // the key is immutable
	if path.Base(draft.Path) != orig.Name {
		c.mu.Unlock()
		return orig, fmt.Errorf("collection: update %s: rename may not change the note name", name)
	}

	c.records[name] = draft // optimistic
	c.mu.Unlock()

	err := c.applyUpdate(orig, draft)
	if err != nil {
		c.mu.Lock()
		c.records[name] = orig // roll back
		c.mu.Unlock()
		return orig, err
	}

	if st, statErr := c.store.Stat(draft.Path); statErr == nil {
		draft.Mtime = st.UpdatedAt.UnixMilli()
		c.mu.Lock()
		c.records[name] = draft
		c.mu.Unlock()
	}

	c.notify(Event{Kind: EventUpdated, Name: name, Path: draft.Path})
	return draft, nil
}

func (c *Collection) applyUpdate(orig, draft models.FileRecord) error {
	if draft.Path != orig.Path {
		if err := c.store.Rename(orig.Path, draft.Path); err != nil {
			return err
		}
	}
	if draft.Snooze != orig.Snooze {
		if draft.Snooze.Interval > 0 && !draft.Snooze.ExpireTime.IsZero() {
			return c.snoozes.SetEntry(draft.Path, draft.Snooze.Interval, draft.Snooze.ExpireTime)
		}
		return c.snoozes.ClearEntry(draft.Path)
	}
	return nil
}

// Delete trashes the note and removes its record. The removal is applied
// optimistically and restored when the store call fails.
func (c *Collection) Delete(name string) error {
	c.mu.Lock()
	rec, ok := c.records[name]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("collection: delete %s: %w", name, apperr.ErrUnknownNote)
	}
	delete(c.records, name)
	c.mu.Unlock()

	if err := c.store.Trash(rec.Path); err != nil {
		c.mu.Lock()
		c.records[name] = rec
		c.mu.Unlock()
		return err
	}

	c.notify(Event{Kind: EventDeleted, Name: name, Path: rec.Path})
	return nil
}

// RefetchPath re-reads one note from the store and upserts its record.
// A note that no longer exists is removed instead.
func (c *Collection) RefetchPath(p string) {
	meta, err := c.store.Stat(p)
	if err != nil {
		c.RemovePath(p)
		return
	}
	rec := c.buildRecord(meta)

	c.mu.Lock()
	_, existed := c.records[rec.Name]
	c.records[rec.Name] = rec
	c.mu.Unlock()

	kind := EventUpdated
	if !existed {
		kind = EventCreated
	}
	c.notify(Event{Kind: kind, Name: rec.Name, Path: rec.Path})
}

// RemovePath drops the record whose path matches, if any.
func (c *Collection) RemovePath(p string) {
	name := path.Base(p)

	c.mu.Lock()
	rec, ok := c.records[name]
	if !ok || rec.Path != p {
		c.mu.Unlock()
		return
	}
	delete(c.records, name)
	c.mu.Unlock()

	c.notify(Event{Kind: EventDeleted, Name: name, Path: p})
}
