// internal/app/features/polls/routes.go
package polls

import (
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServePollsList)
	r.Get("/{id}", h.ServePoll)
	r.Get("/{id}/results", h.ServeResults)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.HandleCreatePoll)
		pr.Put("/{id}", h.HandleEditPoll)
		pr.Delete("/{id}", h.HandleDeletePoll)
		pr.Post("/{id}/vote", h.HandleVote)
	})

	return r
}
