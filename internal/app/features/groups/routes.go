// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Public reads. Secret groups resolve only for members.
	r.Get("/", h.ServeGroupsList)
	r.Get("/{id}", h.ServeGroup)
	r.Get("/{id}/members", h.ServeMembers)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		// CRUD
		pr.Post("/", h.HandleCreateGroup)
		pr.Put("/{id}", h.HandleEditGroup)
		pr.Delete("/{id}", h.HandleDeleteGroup)

		// SELF-SERVICE MEMBERSHIP
		pr.Post("/{id}/join", h.HandleJoin)
		pr.Post("/{id}/leave", h.HandleLeave)

		// MANAGE MEMBERS
		pr.Post("/{id}/members/{user}/approve", h.HandleApprove)
		pr.Put("/{id}/members/{user}/role", h.HandleSetRole)
		pr.Post("/{id}/members/{user}/ban", h.HandleBan)
		pr.Delete("/{id}/members/{user}/ban", h.HandleUnban)

		// AUDIT TRAIL
		pr.Get("/{id}/activity", h.ServeActivity)
	})

	return r
}
