// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/forgot-password", h.HandleForgotPassword)
	r.Post("/reset-password", h.HandleResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Post("/refresh", h.HandleRefresh)
		pr.Put("/password", h.HandleChangePassword)
	})

	return r
}
