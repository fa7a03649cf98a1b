// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
		pr.Put("/me", h.HandleUpdateMe)
		pr.Delete("/{id}", h.HandleDeleteUser)
	})

	r.Get("/by-username/{username}", h.ServeUserByUsername)
	r.Get("/{id}", h.ServeUser)
	r.Get("/{id}/forums", h.ServeUserForums)
	r.Get("/{id}/comments", h.ServeUserComments)
	r.Get("/{id}/polls", h.ServeUserPolls)
	r.Get("/{id}/groups", h.ServeUserGroups)

	return r
}
