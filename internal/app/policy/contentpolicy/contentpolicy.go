// Package contentpolicy holds the ownership rules for forums, comments,
// polls and media.
//
//   - Editing is for the owner or a site admin.
//   - Removing is also open to site moderators, and to any extra owners the
//     caller passes (a forum owner may remove comments in their forum).
package contentpolicy

import (
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanEdit reports whether the request user owns the content or is a site admin.
func CanEdit(r *http.Request, owner primitive.ObjectID) bool {
	return authz.IsSelfOrAdmin(r, owner)
}

// CanModerate reports whether the request user is one of owners or a site
// admin or moderator.
func CanModerate(r *http.Request, owners ...primitive.ObjectID) bool {
	if authz.IsSiteModerator(r) {
		return true
	}
	for _, o := range owners {
		if authz.IsSelf(r, o) {
			return true
		}
	}
	return false
}
