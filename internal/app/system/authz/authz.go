// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's site role (lowercased), username, ObjectID,
// and a found flag. Without a signed-in user it returns "visitor", "",
// NilObjectID, false.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID.IsZero() {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Username, user.ID, true
}

// IsSiteAdmin reports whether the current request's user is a site admin.
func IsSiteAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "admin"
}

// IsSiteModerator reports whether the current request's user is a site
// admin or moderator.
func IsSiteModerator(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == "admin" || role == "moderator")
}

// IsSelf reports whether the signed-in user is id.
func IsSelf(r *http.Request, id primitive.ObjectID) bool {
	_, _, uid, ok := UserCtx(r)
	return ok && uid == id
}

// IsSelfOrAdmin reports whether the signed-in user is id or a site admin.
func IsSelfOrAdmin(r *http.Request, id primitive.ObjectID) bool {
	return IsSelf(r, id) || IsSiteAdmin(r)
}
