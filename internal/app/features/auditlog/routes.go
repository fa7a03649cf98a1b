// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit endpoints (typically at "/audit"). Site admins only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Get("/failed-logins", h.ServeFailedLogins)
	})

	return r
}
