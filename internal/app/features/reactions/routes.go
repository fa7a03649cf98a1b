// internal/app/features/reactions/routes.go
package reactions

import (
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Mount registers POST and DELETE /{id}/react for targetType on a
// feature router. Both require a signed-in user.
func Mount(r chi.Router, h *Handler, targetType string) {
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/{id}/react", h.HandleReact(targetType))
		pr.Delete("/{id}/react", h.HandleUnreact(targetType))
	})
}
