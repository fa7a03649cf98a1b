// internal/app/features/users/profile.go
package users

import (
	"net/http"
	"strings"

	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errUserNotFound = apperr.NotFound("user not found")
	errNoChanges    = apperr.Validation("no updatable fields supplied")
)

// ServeMe handles GET /users/me with the caller's full record.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get me")
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		respond.Error(w, r, h.Log, errUserNotFound)
		return
	}
	respond.OK(w, "", u)
}

type profileInput struct {
	Username   *string `json:"username" validate:"nonblank,min=3,max=30" label:"Username"`
	University *string `json:"university" validate:"max=100" label:"University"`
	Gender     *string `json:"gender" validate:"max=20" label:"Gender"`
	AvatarURL  *string `json:"avatar_url" validate:"httpurl" label:"Avatar URL"`
}

// HandleUpdateMe handles PUT /users/me. Only username, university, gender
// and avatar_url can change here; anything else in the body is ignored.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in profileInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	upd := userstore.ProfileUpdate{
		Username:   in.Username,
		University: in.University,
		Gender:     in.Gender,
		AvatarURL:  in.AvatarURL,
	}
	if upd.Empty() {
		respond.Error(w, r, h.Log, errNoChanges)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update me")
	defer cancel()

	u, err := userstore.New(h.DB).UpdateProfile(ctx, uid, upd)
	if userstore.IsNotFound(err) {
		respond.Error(w, r, h.Log, errUserNotFound)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "profile updated", u)
}

// ServeUser handles GET /users/{id}. The caller and site admins get the
// full record; everyone else gets the public profile.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "user")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user")
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, id)
	h.serveProfile(w, r, u, err)
}

// ServeUserByUsername handles GET /users/by-username/{username}. The
// lookup ignores case.
func (h *Handler) ServeUserByUsername(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "username"))
	if name == "" {
		respond.Error(w, r, h.Log, errUserNotFound)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user by username")
	defer cancel()

	u, err := userstore.New(h.DB).GetByUsername(ctx, name)
	h.serveProfile(w, r, u, err)
}

func (h *Handler) serveProfile(w http.ResponseWriter, r *http.Request, u *models.User, err error) {
	if err != nil || !u.IsActive {
		if err != nil && !userstore.IsNotFound(err) {
			respond.Error(w, r, h.Log, err)
			return
		}
		respond.Error(w, r, h.Log, errUserNotFound)
		return
	}
	if authz.IsSelfOrAdmin(r, u.ID) {
		respond.OK(w, "", u)
		return
	}
	respond.OK(w, "", publicProfile(*u))
}

// HandleDeleteUser handles DELETE /users/{id}: self or site admin, soft delete.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "user")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !authz.IsSelfOrAdmin(r, id) {
		respond.Error(w, r, h.Log, apperr.Forbidden("you can only delete your own account"))
		return
	}
	_, _, actor, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete user")
	defer cancel()

	if err := userstore.New(h.DB).SoftDelete(ctx, id); err != nil {
		if userstore.IsNotFound(err) {
			err = errUserNotFound
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.UserDeleted(ctx, r, actor, id)
	respond.OK(w, "user deleted", map[string]primitive.ObjectID{"id": id})
}
