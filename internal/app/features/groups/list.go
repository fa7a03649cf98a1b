// internal/app/features/groups/list.go
package groups

import (
	"net/http"

	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	"github.com/dalemusser/campusforum/internal/app/system/normalize"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeGroupsList handles GET /groups?search=&category=. Secret groups
// never appear here.
func (h *Handler) ServeGroupsList(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r, paging.DefaultPerPage)
	f := groupstore.Filter{
		Search:   normalize.QueryParam(query.Get(r, "search")),
		Category: normalize.QueryParam(query.Get(r, "category")),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list groups")
	defer cancel()

	rows, total, err := groupstore.New(h.DB).List(ctx, f, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.List(w, "", rows, p.MetaFor(total))
}

// ServeGroup handles GET /groups/{id}.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get group")
	defer cancel()

	g, err := h.loadGroup(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "", g)
}
