// internal/app/features/groups/members.go
package groups

import (
	"net/http"
	"time"

	"github.com/dalemusser/campusforum/internal/app/membership"
	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/normalize"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberRow is one member entry joined with the user's public fields.
type memberRow struct {
	UserID    primitive.ObjectID `json:"user_id"`
	Username  string             `json:"username"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	Role      string             `json:"role"`
	Status    string             `json:"status"`
	JoinedAt  time.Time          `json:"joined_at"`
}

// ServeMembers handles GET /groups/{id}/members?status=&role=. Rows keep
// join order. Entries whose user record is gone are left out of the page
// but still counted in the total.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	f := membership.Filter{
		Status: normalize.Role(query.Get(r, "status")),
		Role:   normalize.Role(query.Get(r, "role")),
	}
	if f.Status != "" && !membership.ValidStatus(f.Status) {
		respond.Error(w, r, h.Log, membership.ErrInvalidStatus.WithField("status", "unknown status"))
		return
	}
	if f.Role != "" && !membership.ValidRole(f.Role) {
		respond.Error(w, r, h.Log, membership.ErrInvalidRole.WithField("role", "unknown role"))
		return
	}
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list members")
	defer cancel()

	g, err := h.loadGroup(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	page, total := membership.ListMembers(&g, f, p)
	ids := make([]primitive.ObjectID, len(page))
	for i, m := range page {
		ids[i] = m.UserID
	}
	users, err := userstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	rows := make([]memberRow, 0, len(page))
	for _, m := range page {
		u, ok := users[m.UserID]
		if !ok {
			continue
		}
		rows = append(rows, memberRow{
			UserID:    m.UserID,
			Username:  u.Username,
			AvatarURL: u.AvatarURL,
			Role:      m.Role,
			Status:    m.Status,
			JoinedAt:  m.JoinedAt,
		})
	}
	respond.List(w, "", rows, p.MetaFor(total))
}
