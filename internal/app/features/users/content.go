// internal/app/features/users/content.go
package users

import (
	"context"
	"net/http"

	commentstore "github.com/dalemusser/campusforum/internal/app/store/comments"
	forumstore "github.com/dalemusser/campusforum/internal/app/store/forums"
	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	pollstore "github.com/dalemusser/campusforum/internal/app/store/polls"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listFunc loads one page of a user's content.
type listFunc func(ctx context.Context, r *http.Request, user primitive.ObjectID, p paging.Params) (any, int64, error)

// serveList runs a per-user listing for GET /users/{id}/<kind>.
func (h *Handler) serveList(op string, list listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlparam.ObjectID(r, "id", "user")
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		p := paging.Parse(r, paging.DefaultPerPage)

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
		defer cancel()

		rows, total, err := list(ctx, r, id, p)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		respond.List(w, "", rows, p.MetaFor(total))
	}
}

func (h *Handler) ServeUserForums(w http.ResponseWriter, r *http.Request) {
	h.serveList("user forums", func(ctx context.Context, _ *http.Request, user primitive.ObjectID, p paging.Params) (any, int64, error) {
		rows, total, err := forumstore.New(h.DB).List(ctx, forumstore.Filter{OwnerID: &user}, p)
		return rows, total, err
	})(w, r)
}

func (h *Handler) ServeUserComments(w http.ResponseWriter, r *http.Request) {
	h.serveList("user comments", func(ctx context.Context, _ *http.Request, user primitive.ObjectID, p paging.Params) (any, int64, error) {
		rows, total, err := commentstore.New(h.DB).ListByOwner(ctx, user, p)
		return rows, total, err
	})(w, r)
}

func (h *Handler) ServeUserPolls(w http.ResponseWriter, r *http.Request) {
	h.serveList("user polls", func(ctx context.Context, _ *http.Request, user primitive.ObjectID, p paging.Params) (any, int64, error) {
		rows, total, err := pollstore.New(h.DB).ListByOwner(ctx, user, p)
		return rows, total, err
	})(w, r)
}

// ServeUserGroups lists groups where the user is an active member. Secret
// groups are only shown to the user themself and site admins.
func (h *Handler) ServeUserGroups(w http.ResponseWriter, r *http.Request) {
	h.serveList("user groups", func(ctx context.Context, r *http.Request, user primitive.ObjectID, p paging.Params) (any, int64, error) {
		rows, total, err := groupstore.New(h.DB).ListByMember(ctx, user, authz.IsSelfOrAdmin(r, user), p)
		return rows, total, err
	})(w, r)
}
