// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/membership"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/domain/models"
)

// CanEdit reports whether the request user may change group settings:
// the creator, an active group admin, or a site admin.
func CanEdit(r *http.Request, g *models.Group) bool {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	return authz.IsSiteAdmin(r) || membership.IsGroupAdmin(g, uid)
}

// CanDelete reports whether the request user may delete the group:
// the creator or a site admin.
func CanDelete(r *http.Request, g *models.Group) bool {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	return g.CreatorID == uid || authz.IsSiteAdmin(r)
}

// CanView reports whether the request user may see the group at all.
// Secret groups are visible only to their members and site admins.
func CanView(r *http.Request, g *models.Group) bool {
	if g.Visibility != models.VisibilitySecret {
		return true
	}
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	if authz.IsSiteAdmin(r) {
		return true
	}
	status := membership.StatusOf(g, uid)
	return status != "" && status != models.MemberStatusBanned
}
