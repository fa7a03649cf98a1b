// internal/app/features/accounts/register.go
package accounts

import (
	"net/http"

	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/domain/models"
)

type registerInput struct {
	Email      string `json:"email" validate:"required,email" label:"Email"`
	Username   string `json:"username" validate:"required,min=3,max=30" label:"Username"`
	Password   string `json:"password" validate:"required" label:"Password"`
	University string `json:"university" validate:"max=100" label:"University"`
	Gender     string `json:"gender" validate:"max=20" label:"Gender"`
}

// HandleRegister handles POST /auth/register. New accounts always get the
// user role.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	u, err := userstore.New(h.DB).Create(ctx, models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		University:   in.University,
		Gender:       in.Gender,
		Role:         models.RoleUser,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.Registered(ctx, r, u.ID, u.Email)

	out, err := h.issue(u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "registration successful", out)
}
