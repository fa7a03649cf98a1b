// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/campusforum/internal/app/store/audit"
	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	dateLayout        = "2006-01-02"
	defaultFailWindow = 24 * time.Hour
	maxFailWindow     = 30 * 24 * time.Hour
)

// listItem is an event with actor and subject usernames resolved.
type listItem struct {
	audit.Event
	ActorName string `json:"actor_name,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

// ServeList handles GET /audit. Filters: category, event_type, group,
// user, actor, start_date and end_date (YYYY-MM-DD, end date inclusive),
// failures_only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	p := paging.Parse(r, paging.DefaultPerPage)
	f.Limit = p.Limit()
	f.Offset = p.Skip()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

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
	respond.List(w, "", h.resolveNames(ctx, events), p.MetaFor(total))
}

// ServeFailedLogins handles GET /audit/failed-logins?window=24h.
func (h *Handler) ServeFailedLogins(w http.ResponseWriter, r *http.Request) {
	window := defaultFailWindow
	if s := query.Get(r, "window"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 || d > maxFailWindow {
			respond.Error(w, r, h.Log, apperr.Validation("invalid window").
				WithField("window", "Use a duration such as 1h or 24h, up to 720h."))
			return
		}
		window = d
	}
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "failed logins")
	defer cancel()

	events, err := audit.New(h.DB).FailedLoginsSince(ctx, time.Now().UTC().Add(-window), p.Limit())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "", h.resolveNames(ctx, events))
}

func parseFilter(r *http.Request) (audit.QueryFilter, error) {
	f := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "event_type"),
	}
	if fo := urlparam.QueryBool(r, "failures_only"); fo != nil {
		f.FailuresOnly = *fo
	}

	var err error
	if f.GroupID, err = urlparam.QueryObjectID(r, "group"); err != nil {
		return f, err
	}
	if f.UserID, err = urlparam.QueryObjectID(r, "user"); err != nil {
		return f, err
	}
	if f.ActorID, err = urlparam.QueryObjectID(r, "actor"); err != nil {
		return f, err
	}

	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, apperr.Validation("invalid start_date").WithField("start_date", "Use YYYY-MM-DD.")
		}
		f.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, apperr.Validation("invalid end_date").WithField("end_date", "Use YYYY-MM-DD.")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, apperr.Validation("end_date is before start_date").WithField("end_date", "End date is before start date.")
	}
	return f, nil
}

// resolveNames batch-loads usernames for actors and subjects. A lookup
// failure only costs the names.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) []listItem {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	users, err := userstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to fetch usernames for audit log", zap.Error(err))
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{Event: e}
		if e.ActorID != nil {
			item.ActorName = users[*e.ActorID].Username
		}
		if e.UserID != nil {
			item.UserName = users[*e.UserID].Username
		}
		items = append(items, item)
	}
	return items
}
