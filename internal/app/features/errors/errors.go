// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/system/respond"
)

// Handler answers requests the router could not match with the standard
// error envelope instead of chi's plain-text defaults.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusNotFound, respond.Envelope{
		Status:  respond.StatusError,
		Message: "resource not found",
	})
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusMethodNotAllowed, respond.Envelope{
		Status:  respond.StatusError,
		Message: "method " + r.Method + " not allowed",
	})
}
