// Package boardservice implements the board operations on top of the live
// collection, the snooze store, and the snooze policy.
package boardservice

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/reboard/internal/apperr"
	"github.com/starford/reboard/internal/collection"
	"github.com/starford/reboard/internal/models"
	"github.com/starford/reboard/internal/parser"
	"github.com/starford/reboard/internal/snooze"
	"github.com/starford/reboard/internal/storage"
)

// DefaultBaseName is the stem used when creating a note without a name.
const DefaultBaseName = "New Note"

// BoardInfo describes one board (a folder containing notes).
type BoardInfo struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	NoteCount int    `json:"note_count"`
}

// NoteCard is the card representation of one note on a board.
type NoteCard struct {
	Path           string `json:"path"`
	Name           string `json:"name"`
	Mtime          int64  `json:"mtime"`
	Title          string `json:"title,omitempty"`
	Preview        string `json:"preview,omitempty"`
	Snoozed        bool   `json:"snoozed"`
	Interval       int    `json:"interval,omitempty"`
	ExpireTime     string `json:"expire_time,omitempty"`
	RemainingHours int    `json:"remaining_hours,omitempty"`
}

// SnoozedNote is one row of the vault-wide snooze inventory.
type SnoozedNote struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Interval   int    `json:"interval"`
	ExpireTime string `json:"expire_time"`
	Status     string `json:"status"` // "active" or "expired"
}

// Service coordinates the collection, snooze store, and policy.
type Service struct {
	store         storage.Provider
	coll          *collection.Collection
	snoozes       *snooze.Store
	policy        *snooze.Policy
	previewLength int
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates a board service.
func NewService(store storage.Provider, coll *collection.Collection, snoozes *snooze.Store, policy *snooze.Policy, previewLength int, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		coll:          coll,
		snoozes:       snoozes,
		policy:        policy,
		previewLength: previewLength,
		logger:        logger,
		now:           time.Now,
	}
}

// Collection exposes the underlying live collection for subscribers.
func (s *Service) Collection() *collection.Collection {
	return s.coll
}

// Boards lists every folder that directly contains at least one note,
// sorted by path. The vault root is reported as the "" board when it holds
// notes.
func (s *Service) Boards() []BoardInfo {
	counts := make(map[string]int)
	for _, rec := range s.coll.Snapshot() {
		counts[parentFolder(rec.Path)]++
	}

	out := make([]BoardInfo, 0, len(counts))
	for folder, n := range counts {
		out = append(out, BoardInfo{
			Path:      folder,
			Name:      path.Base(folder),
			NoteCount: n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func parentFolder(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// Board returns the visible cards for a folder scope, sorted by mtime
// descending. Snoozed notes are filtered out unless includeSnoozed is set.
// A folder with no notes at all (snoozed or not) is not a board.
func (s *Service) Board(folder string, includeSnoozed bool) ([]NoteCard, error) {
	now := s.now()
	all := s.coll.Board(folder, true, now)
	if folder != "" && len(all) == 0 {
		return nil, fmt.Errorf("boardservice: board %s: %w", folder, apperr.ErrNotFound)
	}

	records := all
	if !includeSnoozed {
		records = s.coll.Board(folder, false, now)
	}

	cards := make([]NoteCard, len(records))
	for i, rec := range records {
		cards[i] = s.card(rec, now)
	}
	return cards, nil
}

// card builds the display representation. A failed content read leaves the
// card without title/preview rather than failing the board.
func (s *Service) card(rec models.FileRecord, now time.Time) NoteCard {
	card := NoteCard{
		Path:    rec.Path,
		Name:    rec.Name,
		Mtime:   rec.Mtime,
		Snoozed: rec.IsSnoozed(now),
	}
	if !rec.Snooze.ExpireTime.IsZero() {
		card.Interval = rec.Snooze.Interval
		card.ExpireTime = snooze.FormatExpire(rec.Snooze.ExpireTime)
		card.RemainingHours = rec.RemainingHours(now)
	}

	content, err := s.store.Read(rec.Path)
	if err != nil {
		s.logger.Warn("boardservice: preview read failed",
			slog.String("path", rec.Path),
			slog.String("error", err.Error()))
		return card
	}
	res, err := parser.Parse(content)
	if err != nil {
		return card
	}
	card.Title = res.Title
	card.Preview = parser.Preview(res.Body, s.previewLength)
	return card
}

// CreateNote creates an empty note in the folder, probing
// "<base>.md", "<base> 1.md", "<base> 2.md", … against the vault-wide name
// set until a free name is found.
func (s *Service) CreateNote(folder, baseName string) (NoteCard, error) {
	baseName = strings.TrimSuffix(strings.TrimSpace(baseName), ".md")
	if baseName == "" {
		baseName = DefaultBaseName
	}

	taken := s.coll.Names()
	name := baseName + ".md"
	for idx := 1; ; idx++ {
		if _, ok := taken[name]; !ok {
			break
		}
		name = fmt.Sprintf("%s %d.md", baseName, idx)
	}

	notePath := name
	if folder != "" {
		notePath = folder + "/" + name
	}

	rec := models.FileRecord{
		Path:  notePath,
		Name:  name,
		Mtime: s.now().UnixMilli(),
	}
	if err := s.coll.Insert(rec); err != nil {
		return NoteCard{}, err
	}

	s.logger.Info("note created", slog.String("path", notePath))
	created, _ := s.coll.Get(name)
	return s.card(created, s.now()), nil
}

// SnoozeNote snoozes a note. A positive hours value is used verbatim (the
// custom snooze path) and recorded as the note's interval; zero selects
// the incremental escalation policy against the note's current persisted
// entry.
func (s *Service) SnoozeNote(name string, hours int) (models.FileRecord, error) {
	rec, ok := s.coll.Get(name)
	if !ok {
		return models.FileRecord{}, fmt.Errorf("boardservice: snooze %s: %w", name, apperr.ErrUnknownNote)
	}

	now := s.now()
	interval := hours
	if interval <= 0 {
		entry, err := s.snoozes.GetEntry(rec.Path)
		if err != nil {
			return models.FileRecord{}, err
		}
		interval = s.policy.NextInterval(entry, now)
		if interval <= 0 {
			return models.FileRecord{}, fmt.Errorf("boardservice: snooze %s: no snooze tiers configured", name)
		}
	}
	expire := snooze.ExpireAfter(now, interval)

	updated, err := s.coll.Update(name, func(draft *models.FileRecord) {
		draft.Snooze = models.SnoozeInfo{Interval: interval, ExpireTime: expire}
	})
	if err != nil {
		return models.FileRecord{}, err
	}

	s.logger.Info("note snoozed",
		slog.String("name", name),
		slog.Int("hours", interval),
		slog.String("expire", snooze.FormatExpire(expire)))
	return updated, nil
}

// WakeNote clears a note's snooze state.
func (s *Service) WakeNote(name string) (models.FileRecord, error) {
	updated, err := s.coll.Update(name, func(draft *models.FileRecord) {
		draft.Snooze = models.SnoozeInfo{}
	})
	if err != nil {
		return models.FileRecord{}, err
	}
	s.logger.Info("note woken", slog.String("name", name))
	return updated, nil
}

// UnpinNote moves a note to the vault root by rewriting its path to the
// bare name.
func (s *Service) UnpinNote(name string) (models.FileRecord, error) {
	rec, ok := s.coll.Get(name)
	if !ok {
		return models.FileRecord{}, fmt.Errorf("boardservice: unpin %s: %w", name, apperr.ErrUnknownNote)
	}
	if rec.Path == rec.Name {
		return rec, nil // already at the root
	}
	updated, err := s.coll.Update(name, func(draft *models.FileRecord) {
		draft.Path = draft.Name
	})
	if err != nil {
		return models.FileRecord{}, err
	}
	s.logger.Info("note unpinned", slog.String("name", name))
	return updated, nil
}

// DeleteNote trashes a note.
func (s *Service) DeleteNote(name string) error {
	return s.coll.Delete(name)
}

// SweepExpired clears every expired snooze within the folder scope,
// earliest expiry first, one note at a time. Sequential, ordered clearing
// keeps the relative board order of previously-snoozed notes predictable
// when clearing bumps modification times. It returns the cleared paths in
// clearing order.
func (s *Service) SweepExpired(folder string) ([]string, error) {
	now := s.now()

	type expired struct {
		path   string
		expire time.Time
	}
	var found []expired
	for _, rec := range s.coll.Board(folder, true, now) {
		entry, err := s.snoozes.GetEntry(rec.Path)
		if err != nil {
			s.logger.Warn("sweep: entry read failed",
				slog.String("path", rec.Path),
				slog.String("error", err.Error()))
			continue
		}
		if entry != nil && !entry.Active(now) {
			found = append(found, expired{path: rec.Path, expire: entry.Expire})
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].expire.Before(found[j].expire) })

	cleared := make([]string, 0, len(found))
	for _, e := range found {
		if err := s.snoozes.ClearEntry(e.path); err != nil {
			return cleared, fmt.Errorf("boardservice: sweep clear %s: %w", e.path, err)
		}
		s.coll.RefetchPath(e.path)
		cleared = append(cleared, e.path)
	}

	if len(cleared) > 0 {
		s.logger.Info("sweep cleared expired snoozes",
			slog.String("folder", folder),
			slog.Int("count", len(cleared)))
	}
	return cleared, nil
}

// ListSnoozed returns every note carrying a snooze entry, expired ones
// included, sorted by expiry ascending.
func (s *Service) ListSnoozed() []SnoozedNote {
	now := s.now()
	var out []SnoozedNote
	for _, rec := range s.coll.Snapshot() {
		if rec.Snooze.ExpireTime.IsZero() {
			continue
		}
		status := "expired"
		if rec.IsSnoozed(now) {
			status = "active"
		}
		out = append(out, SnoozedNote{
			Path:       rec.Path,
			Name:       rec.Name,
			Interval:   rec.Snooze.Interval,
			ExpireTime: snooze.FormatExpire(rec.Snooze.ExpireTime),
			Status:     status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpireTime < out[j].ExpireTime })
	return out
}

// SetClock overrides the service clock. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
