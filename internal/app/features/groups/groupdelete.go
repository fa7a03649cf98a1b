// internal/app/features/groups/groupdelete.go
package groups

import (
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/policy/grouppolicy"
	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleDeleteGroup handles DELETE /groups/{id} (creator or site admin).
// The group is deactivated; its member list is kept for the record.
func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete group")
	defer cancel()

	g, err := h.loadGroup(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !grouppolicy.CanDelete(r, &g) {
		respond.Error(w, r, h.Log, apperr.Forbidden("only the group creator can delete this group"))
		return
	}

	if err := groupstore.New(h.DB).SoftDelete(ctx, g.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			err = errGroupNotFound
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.GroupDeleted(ctx, r, uid, g.ID, g.Name)
	respond.OK(w, "group deleted", map[string]primitive.ObjectID{"id": g.ID})
}
