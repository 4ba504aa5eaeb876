package api

import "github.com/starford/reboard/internal/boardservice"

// BoardListResponse is the payload for GET /boards.
type BoardListResponse struct {
	Boards []boardservice.BoardInfo `json:"boards"`
}

// BoardResponse is the payload for GET /boards/*.
type BoardResponse struct {
	Board string                  `json:"board"`
	Notes []boardservice.NoteCard `json:"notes"`
}

// CreateNoteRequest is the body for POST /notes.
type CreateNoteRequest struct {
	Folder string `json:"folder"`
	Name   string `json:"name,omitempty"`
}

// SnoozeRequest is the body for POST /notes/{name}/snooze. Hours of zero
// (or an empty body) selects the incremental escalation policy.
type SnoozeRequest struct {
	Hours int `json:"hours,omitempty"`
}

// SweepRequest is the body for POST /sweep.
type SweepRequest struct {
	Folder string `json:"folder"`
}

// SweepResponse reports the cleared notes in clearing order.
type SweepResponse struct {
	Cleared []string `json:"cleared"`
}

// SnoozeListResponse is the payload for GET /snoozes.
type SnoozeListResponse struct {
	Snoozes []boardservice.SnoozedNote `json:"snoozes"`
}

// NoteResponse wraps a single note record after a mutation.
type NoteResponse struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Mtime      int64  `json:"mtime"`
	Interval   int    `json:"interval,omitempty"`
	ExpireTime string `json:"expire_time,omitempty"`
}
