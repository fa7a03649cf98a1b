// internal/app/features/forums/list.go
package forums

import (
	"net/http"

	commentstore "github.com/dalemusser/campusforum/internal/app/store/comments"
	forumstore "github.com/dalemusser/campusforum/internal/app/store/forums"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/normalize"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
)

var errForumNotFound = apperr.NotFound("forum not found")

// ServeForumsList handles GET /forums?search=&category=&university=&owner=.
func (h *Handler) ServeForumsList(w http.ResponseWriter, r *http.Request) {
	owner, err := urlparam.QueryObjectID(r, "owner")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f := forumstore.Filter{
		Search:     normalize.QueryParam(query.Get(r, "search")),
		Category:   normalize.QueryParam(query.Get(r, "category")),
		University: normalize.QueryParam(query.Get(r, "university")),
		OwnerID:    owner,
	}
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list forums")
	defer cancel()

	rows, total, err := forumstore.New(h.DB).List(ctx, f, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.List(w, "", rows, p.MetaFor(total))
}

// ServeForum handles GET /forums/{id}.
func (h *Handler) ServeForum(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "forum")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get forum")
	defer cancel()

	f, err := forumstore.New(h.DB).GetActive(ctx, id)
	if err == mongo.ErrNoDocuments {
		err = errForumNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "", f)
}

// ServeForumComments handles GET /forums/{id}/comments: top-level
// comments, oldest first. Replies are fetched per comment.
func (h *Handler) ServeForumComments(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "forum")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "forum comments")
	defer cancel()

	if _, err := forumstore.New(h.DB).GetActive(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			err = errForumNotFound
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	rows, total, err := commentstore.New(h.DB).ListByForum(ctx, id, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.List(w, "", rows, p.MetaFor(total))
}
