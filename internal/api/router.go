package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/reboard/internal/boardservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *boardservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Boards.
	r.Get("/boards", h.ListBoards)
	r.Get("/boards/*", h.GetBoard)

	// Expiry sweep (the presentation layer calls this on board mount).
	r.Post("/sweep", h.Sweep)

	// Notes. Names are leaf names, the collection key.
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/{name}/snooze", h.SnoozeNote)
	r.Post("/notes/{name}/wake", h.WakeNote)
	r.Post("/notes/{name}/unpin", h.UnpinNote)
	r.Delete("/notes/{name}", h.DeleteNote)

	// Snooze inventory.
	r.Get("/snoozes", h.ListSnoozes)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
