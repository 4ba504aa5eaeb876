package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/reboard/internal/apperr"
	"github.com/starford/reboard/internal/boardservice"
	"github.com/starford/reboard/internal/models"
	"github.com/starford/reboard/internal/snooze"
)

// Handler holds API route handlers.
type Handler struct {
	svc *boardservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *boardservice.Service) *Handler {
	return &Handler{svc: svc}
}

// boardPath extracts the board folder path from the URL (everything after
// /boards/). Supports encoded slashes from generated clients.
func boardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// noteName extracts the note name URL parameter.
func noteName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func noteResponse(rec models.FileRecord) NoteResponse {
	resp := NoteResponse{
		Path:  rec.Path,
		Name:  rec.Name,
		Mtime: rec.Mtime,
	}
	if !rec.Snooze.ExpireTime.IsZero() {
		resp.Interval = rec.Snooze.Interval
		resp.ExpireTime = snooze.FormatExpire(rec.Snooze.ExpireTime)
	}
	return resp
}

// ListBoards handles GET /boards.
func (h *Handler) ListBoards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, BoardListResponse{Boards: h.svc.Boards()})
}

// GetBoard handles GET /boards/*. The empty path is the root board.
// ?include_snoozed=true bypasses the snoozed filter.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	folder := boardPath(r)
	includeSnoozed := r.URL.Query().Get("include_snoozed") == "true"

	notes, err := h.svc.Board(folder, includeSnoozed)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("board not found"))
			return
		}
		slog.Error("get board failed", slog.String("folder", folder), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, BoardResponse{Board: folder, Notes: notes})
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	card, err := h.svc.CreateNote(req.Folder, req.Name)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("note already exists"))
			return
		}
		slog.Error("create note failed", slog.String("folder", req.Folder), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// SnoozeNote handles POST /notes/{name}/snooze.
func (h *Handler) SnoozeNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	var req SnoozeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	}
	if req.Hours < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("hours must not be negative"))
		return
	}

	rec, err := h.svc.SnoozeNote(name, req.Hours)
	if err != nil {
		h.writeMutationError(w, name, "snooze", err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse(rec))
}

// WakeNote handles POST /notes/{name}/wake.
func (h *Handler) WakeNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	rec, err := h.svc.WakeNote(name)
	if err != nil {
		h.writeMutationError(w, name, "wake", err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse(rec))
}

// UnpinNote handles POST /notes/{name}/unpin.
func (h *Handler) UnpinNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	rec, err := h.svc.UnpinNote(name)
	if err != nil {
		h.writeMutationError(w, name, "unpin", err)
		return
	}
	writeJSON(w, http.StatusOK, noteResponse(rec))
}

// DeleteNote handles DELETE /notes/{name}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	if err := h.svc.DeleteNote(name); err != nil {
		h.writeMutationError(w, name, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sweep handles POST /sweep.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	}

	cleared, err := h.svc.SweepExpired(req.Folder)
	if err != nil {
		slog.Error("sweep failed", slog.String("folder", req.Folder), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if cleared == nil {
		cleared = []string{}
	}
	writeJSON(w, http.StatusOK, SweepResponse{Cleared: cleared})
}

// ListSnoozes handles GET /snoozes.
func (h *Handler) ListSnoozes(w http.ResponseWriter, _ *http.Request) {
	snoozes := h.svc.ListSnoozed()
	if snoozes == nil {
		snoozes = []boardservice.SnoozedNote{}
	}
	writeJSON(w, http.StatusOK, SnoozeListResponse{Snoozes: snoozes})
}

func (h *Handler) writeMutationError(w http.ResponseWriter, name, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnknownNote), errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("note not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("target path already exists"))
	default:
		slog.Error(op+" failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
