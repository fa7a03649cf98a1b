// internal/app/features/accounts/reset.go
package accounts

import (
	"net/http"
	"time"

	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const forgotMessage = "if the account exists, a password reset link has been sent"

type forgotInput struct {
	Email string `json:"email" validate:"required,email" label:"Email"`
}

// forgotResponse carries the reset token only when ExposeResetToken is on.
type forgotResponse struct {
	Token     string     `json:"reset_token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// HandleForgotPassword handles POST /auth/forgot-password. The answer is
// the same whether or not the email belongs to an active account.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in forgotInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	if h.Limiter != nil {
		if ok, _, msg := h.Limiter.Check(r, in.Email); !ok {
			respond.JSON(w, http.StatusTooManyRequests, respond.Envelope{Status: respond.StatusError, Message: msg})
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "forgot password")
	defer cancel()

	var out forgotResponse
	u, err := userstore.New(h.DB).GetByEmail(ctx, in.Email)
	switch {
	case userstore.IsNotFound(err):
	case err != nil:
		respond.Error(w, r, h.Log, err)
		return
	case u.IsActive:
		tok, exp, err := h.Tokens.IssueReset(*u)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		h.Audit.PasswordResetRequested(ctx, r, u.ID, u.Email)
		h.Log.Info("password reset token issued", zap.String("user_id", u.ID.Hex()))
		if h.ExposeResetToken {
			out.Token = tok
			out.ExpiresAt = &exp
		}
	}

	respond.OK(w, forgotMessage, out)
}

type resetInput struct {
	Token       string `json:"token" validate:"required" label:"Token"`
	NewPassword string `json:"new_password" validate:"required" label:"New password"`
}

// HandleResetPassword handles POST /auth/reset-password. A token works
// once: setting the password invalidates it.
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in resetInput
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
	rt, err := h.Tokens.ParseReset(in.Token)
	if err != nil {
		respond.Error(w, r, h.Log, auth.ErrInvalidResetToken)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reset password")
	defer cancel()

	users := userstore.New(h.DB)
	u, err := users.GetByID(ctx, rt.UserID)
	if err != nil && !userstore.IsNotFound(err) {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err != nil || !u.IsActive || !rt.Matches(u.PasswordHash) {
		respond.Error(w, r, h.Log, auth.ErrInvalidResetToken)
		return
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := users.SetPassword(ctx, u.ID, hash); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(u.Email)
	}
	h.Audit.PasswordReset(ctx, r, u.ID)

	respond.OK(w, "password reset", nil)
}
