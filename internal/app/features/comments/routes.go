// internal/app/features/comments/routes.go
package comments

import (
	"github.com/dalemusser/campusforum/internal/app/features/reactions"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, rh *reactions.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.ServeComment)
	r.Get("/{id}/replies", h.ServeReplies)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.HandleCreateComment)
		pr.Put("/{id}", h.HandleEditComment)
		pr.Delete("/{id}", h.HandleDeleteComment)
	})

	reactions.Mount(r, rh, models.TargetComment)
	return r
}
