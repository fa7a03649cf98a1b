// internal/app/features/accounts/login.go
package accounts

import (
	"net/http"
	"time"

	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var errBadCredentials = apperr.Auth("invalid email or password")

type loginInput struct {
	Email    string `json:"email" validate:"required" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// HandleLogin handles POST /auth/login. Unknown email and wrong password
// get the same answer; the audit log records which it was.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if h.Limiter != nil {
		if ok, limitType, msg := h.Limiter.Check(r, in.Email); !ok {
			h.Audit.LoginFailedRateLimit(ctx, r, in.Email, limitType)
			respond.JSON(w, http.StatusTooManyRequests, respond.Envelope{Status: respond.StatusError, Message: msg})
			return
		}
	}

	users := userstore.New(h.DB)
	u, err := users.GetByEmail(ctx, in.Email)
	if userstore.IsNotFound(err) {
		h.Audit.LoginFailedUserNotFound(ctx, r, in.Email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !u.IsActive {
		h.Audit.LoginFailedUserDisabled(ctx, r, u.ID, u.Email)
		respond.Error(w, r, h.Log, auth.ErrAccountDisabled)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		h.Audit.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		respond.Error(w, r, h.Log, errBadCredentials)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}
	now := time.Now().UTC()
	if err := users.TouchLogin(ctx, u.ID, now); err != nil {
		h.Log.Warn("failed to stamp last login", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	} else {
		u.LastLoginAt = &now
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, u.Email)

	out, err := h.issue(*u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "login successful", out)
}
