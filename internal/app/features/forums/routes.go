// internal/app/features/forums/routes.go
package forums

import (
	"github.com/dalemusser/campusforum/internal/app/features/reactions"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, rh *reactions.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeForumsList)
	r.Get("/{id}", h.ServeForum)
	r.Get("/{id}/comments", h.ServeForumComments)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.HandleCreateForum)
		pr.Put("/{id}", h.HandleEditForum)
		pr.Delete("/{id}", h.HandleDeleteForum)
	})

	reactions.Mount(r, rh, models.TargetForum)
	return r
}
