// internal/app/features/groups/activity.go
package groups

import (
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/policy/grouppolicy"
	"github.com/dalemusser/campusforum/internal/app/store/audit"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeActivity handles GET /groups/{id}/activity?event_type=: the
// group's audit trail, newest first. Group admins and site admins only.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group activity")
	defer cancel()

	g, err := h.loadGroup(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !grouppolicy.CanEdit(r, &g) {
		respond.Error(w, r, h.Log, apperr.Forbidden("only group admins can view group activity"))
		return
	}

	f := audit.QueryFilter{
		GroupID:   &g.ID,
		EventType: query.Get(r, "event_type"),
		Limit:     p.Limit(),
		Offset:    p.Skip(),
	}
	store := audit.New(h.DB)
	total, err := store.Count(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	events, err := store.Query(ctx, f)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.List(w, "", events, p.MetaFor(total))
}
