// Package snooze persists and interprets per-note snooze state.
//
// State lives in two paired frontmatter keys inside the note itself; there
// is no side database. The expiration is stored as a local-time
// "YYYY-MM-DD HH:MM:SS" string; raw epoch-millisecond numbers written by
// older versions are still accepted on read and rewritten in canonical
// form on the next edit.
package snooze

import (
	"fmt"
	"time"

	"github.com/starford/reboard/internal/frontmatter"
	"github.com/starford/reboard/internal/storage"
)

// Frontmatter keys for snooze data. The pair is required-together: a note
// carrying only one of them is treated as not snoozed and cleaned up on
// the next edit.
const (
	IntervalKey = "reboard_snooze_interval"
	ExpireKey   = "reboard_snooze_expire"
)

// expireLayout is the canonical on-disk encoding of the expiration.
const expireLayout = "2006-01-02 15:04:05"

// Entry is a decoded snooze entry.
type Entry struct {
	Interval int       // escalation interval, whole hours
	Expire   time.Time // wall-clock expiry
}

// Active reports whether the entry's expiry is still in the future.
func (e Entry) Active(now time.Time) bool {
	return now.Before(e.Expire)
}

// FormatExpire encodes an expiry in the canonical frontmatter form.
func FormatExpire(t time.Time) string {
	return t.Format(expireLayout)
}

// ParseExpire decodes an expiration field value. Strings must use the
// canonical layout; numbers are read as legacy epoch milliseconds.
func ParseExpire(v any) (time.Time, bool) {
	switch x := v.(type) {
	case string:
		t, err := time.ParseInLocation(expireLayout, x, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case int64:
		return time.UnixMilli(x), true
	case float64:
		return time.UnixMilli(int64(x)), true
	default:
		return time.Time{}, false
	}
}

func parseInterval(v any) (int, bool) {
	switch x := v.(type) {
	case int64:
		if x > 0 {
			return int(x), true
		}
	case float64:
		if x > 0 {
			return int(x), true
		}
	}
	return 0, false
}

// Store is the typed facade over the frontmatter codec for the snooze
// fields. Every read goes back to the document: nothing here is cached.
type Store struct {
	store storage.Provider
}

// NewStore creates a snooze store over the given document store.
func NewStore(store storage.Provider) *Store {
	return &Store{store: store}
}

// GetEntry returns the note's snooze entry, or nil when the note has no
// header, no well-formed entry, or only half of the key pair.
func (s *Store) GetEntry(path string) (*Entry, error) {
	content, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return decodeEntry(frontmatter.Parse(content)), nil
}

// decodeEntry interprets the snooze fields out of a parsed header.
func decodeEntry(fields *frontmatter.Fields) *Entry {
	if fields == nil {
		return nil
	}
	rawExpire, ok := fields.Get(ExpireKey)
	if !ok {
		return nil
	}
	rawInterval, ok := fields.Get(IntervalKey)
	if !ok {
		return nil
	}
	expire, ok := ParseExpire(rawExpire)
	if !ok {
		return nil
	}
	interval, ok := parseInterval(rawInterval)
	if !ok {
		return nil
	}
	return &Entry{Interval: interval, Expire: expire}
}

// SetEntry persists a snooze entry into the note's frontmatter.
func (s *Store) SetEntry(path string, interval int, expire time.Time) error {
	if interval <= 0 {
		return fmt.Errorf("snooze: interval must be positive, got %d", interval)
	}
	return s.edit(path, func(f *frontmatter.Fields) {
		f.Set(IntervalKey, interval)
		f.Set(ExpireKey, FormatExpire(expire))
	})
}

// ClearEntry removes the snooze key pair from the note's frontmatter.
func (s *Store) ClearEntry(path string) error {
	return s.edit(path, func(f *frontmatter.Fields) {
		f.Delete(IntervalKey)
		f.Delete(ExpireKey)
	})
}

// IsSnoozed reports whether the note is snoozed right now. This is a
// point-in-time read of the document, not a cached check.
func (s *Store) IsSnoozed(path string, now time.Time) (bool, error) {
	entry, err := s.GetEntry(path)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.Active(now), nil
}

// edit reads fresh content, applies the mutation with the pairing rule
// declared, and writes back only when bytes changed.
func (s *Store) edit(path string, mutator func(*frontmatter.Fields)) error {
	content, err := s.store.Read(path)
	if err != nil {
		return err
	}
	updated, changed := frontmatter.Edit(content, mutator, [2]string{IntervalKey, ExpireKey})
	if !changed {
		return nil
	}
	return s.store.Write(path, updated)
}
