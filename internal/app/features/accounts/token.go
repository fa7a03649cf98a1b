// internal/app/features/accounts/token.go
package accounts

import (
	"net/http"

	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
)

// HandleRefresh handles POST /auth/refresh: a fresh token for the caller.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "refresh token")
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		respond.Error(w, r, h.Log, auth.ErrAccountDisabled)
		return
	}
	out, err := h.issue(*u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "token refreshed", out)
}

type passwordInput struct {
	CurrentPassword string `json:"current_password" validate:"required" label:"Current password"`
	NewPassword     string `json:"new_password" validate:"required" label:"New password"`
}

// HandleChangePassword handles PUT /auth/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in passwordInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := auth.ValidatePassword(in.NewPassword); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "change password")
	defer cancel()

	users := userstore.New(h.DB)
	u, err := users.GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		respond.Error(w, r, h.Log, auth.ErrAccountDisabled)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		respond.Error(w, r, h.Log, apperr.Validation("current password is incorrect").WithField("current_password", "incorrect"))
		return
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := users.SetPassword(ctx, uid, hash); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.PasswordChanged(ctx, r, uid)

	respond.OK(w, "password changed", nil)
}
