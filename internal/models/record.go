// Package models defines the domain types for Reboard.
package models

import "time"

// SnoozeInfo is the snooze state carried by a FileRecord. A record is
// snoozed iff ExpireTime is set and in the future; there is no separate
// boolean flag.
type SnoozeInfo struct {
	// Interval is the escalation interval in whole hours. Zero means the
	// note is not on an escalation track.
	Interval int `json:"interval,omitempty"`
	// ExpireTime is the wall-clock expiry. The zero value means "not snoozed".
	ExpireTime time.Time `json:"expire_time,omitempty"`
}

// IsZero reports whether no snooze state is present at all.
func (s SnoozeInfo) IsZero() bool {
	return s.Interval == 0 && s.ExpireTime.IsZero()
}

// FileRecord is the in-memory projection of one vault note.
//
// Name is the leaf component of Path including the .md extension and is
// the collection's lookup key. A rename (unpin) changes Path but never
// Name. Two notes sharing a leaf name in different folders collide in the
// key space; the collection logs and keeps the newer one.
type FileRecord struct {
	Path   string     `json:"path"`
	Name   string     `json:"name"`
	Mtime  int64      `json:"mtime"` // epoch milliseconds, board sort key
	Snooze SnoozeInfo `json:"snooze_info"`
}

// IsSnoozed reports whether the record is snoozed at the given instant.
func (r FileRecord) IsSnoozed(now time.Time) bool {
	return !r.Snooze.ExpireTime.IsZero() && now.Before(r.Snooze.ExpireTime)
}

// RemainingHours returns the hours left until the snooze expires, rounded
// up, or zero when the record is not currently snoozed.
func (r FileRecord) RemainingHours(now time.Time) int {
	if !r.IsSnoozed(now) {
		return 0
	}
	remaining := r.Snooze.ExpireTime.Sub(now)
	return int((remaining + time.Hour - 1) / time.Hour)
}

// NoteMetadata is a lightweight representation returned by store listings.
type NoteMetadata struct {
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
}
