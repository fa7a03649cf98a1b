// internal/app/features/media/routes.go
package media

import (
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeMediaList)
	r.Get("/{id}", h.ServeMedia)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/", h.HandleUpload)
		pr.Post("/upload-multiple", h.HandleUploadMultiple)
		pr.Delete("/{id}", h.HandleDeleteMedia)
	})

	return r
}
