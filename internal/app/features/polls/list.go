// internal/app/features/polls/list.go
package polls

import (
	"net/http"
	"time"

	pollstore "github.com/dalemusser/campusforum/internal/app/store/polls"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/normalize"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServePollsList handles GET /polls?category=&university=&owner=&active=.
// active=true keeps polls still taking votes; active=false keeps ended ones.
func (h *Handler) ServePollsList(w http.ResponseWriter, r *http.Request) {
	owner, err := urlparam.QueryObjectID(r, "owner")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	f := pollstore.Filter{
		Category:   normalize.QueryParam(query.Get(r, "category")),
		University: normalize.QueryParam(query.Get(r, "university")),
		OwnerID:    owner,
		Open:       urlparam.QueryBool(r, "active"),
		Now:        time.Now().UTC(),
	}
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list polls")
	defer cancel()

	rows, total, err := pollstore.New(h.DB).List(ctx, f, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.List(w, "", rows, p.MetaFor(total))
}

// ServePoll handles GET /polls/{id}. Individual votes are never exposed.
func (h *Handler) ServePoll(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "poll")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get poll")
	defer cancel()

	p, err := pollstore.New(h.DB).GetActive(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, notFound(err))
		return
	}
	respond.OK(w, "", p)
}

// ServeResults handles GET /polls/{id}/results. Signed-in callers also
// learn whether and how they voted.
func (h *Handler) ServeResults(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "poll")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var viewer *primitive.ObjectID
	if _, _, uid, ok := authz.UserCtx(r); ok {
		viewer = &uid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "poll results")
	defer cancel()

	p, err := pollstore.New(h.DB).GetActive(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, notFound(err))
		return
	}
	respond.OK(w, "", pollstore.Tally(p, viewer, time.Now().UTC()))
}
