package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// TokenUser is what a verified bearer token tells us about the caller.
// It is injected into r.Context() by LoadTokenUser.
type TokenUser struct {
	ID       primitive.ObjectID
	Username string
	Role     string // site role: user | moderator | admin
}

// IsSiteAdmin reports whether the caller holds the site admin role.
func (u *TokenUser) IsSiteAdmin() bool { return u != nil && u.Role == "admin" }

// IsSiteModerator reports whether the caller is a site admin or moderator.
func (u *TokenUser) IsSiteModerator() bool {
	return u != nil && (u.Role == "admin" || u.Role == "moderator")
}

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	tokenErrKey    ctxKey = "tokenErr"
)

var (
	ErrMissingToken  = apperr.Auth("authentication required")
	ErrInvalidToken  = apperr.Auth("invalid token")
	ErrExpiredToken  = apperr.Auth("token expired")
	ErrForbiddenRole = apperr.Forbidden("insufficient role")

	ErrAccountDisabled = apperr.Auth("account is disabled")

	ErrInvalidResetToken = apperr.Auth("invalid or expired reset token")
)

// UserFetcher reloads the caller on each request so deleted accounts and
// role changes take effect before the token expires. FetchUser returns nil
// when the user is missing or inactive.
type UserFetcher interface {
	FetchUser(ctx context.Context, id primitive.ObjectID) *TokenUser
}

// SetFetcher makes LoadTokenUser consult f after verifying a token.
func (tm *TokenManager) SetFetcher(f UserFetcher) { tm.fetcher = f }

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*TokenUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*TokenUser)
	return u, ok && u != nil
}

// tokenError is the reason a presented token was rejected, if any.
func tokenError(r *http.Request) error {
	err, _ := r.Context().Value(tokenErrKey).(error)
	return err
}

// LoadTokenUser injects the caller into context when the request carries a
// valid bearer token. A bad token is remembered so RequireSignedIn can say
// why; public routes simply see no user.
func (tm *TokenManager) LoadTokenUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := tm.Parse(raw)
		if err == nil && tm.fetcher != nil {
			if u = tm.fetcher.FetchUser(r.Context(), u.ID); u == nil {
				err = ErrAccountDisabled
			}
		}
		if err != nil {
			r = r.WithContext(context.WithValue(r.Context(), tokenErrKey, err))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadTokenUser).
// Otherwise it answers 401 with the error envelope.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		err := tokenError(r)
		if err == nil {
			err = ErrMissingToken
		}
		respond.Error(w, r, nil, err)
	})
}

// RequireRole ensures the signed-in user holds one of the allowed site
// roles: 401 when nobody is signed in, 403 for the wrong role.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _ := CurrentUser(r)
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Error(w, r, nil, ErrForbiddenRole)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// WithTestUser injects u into the request context. Handler tests use it to
// skip token parsing.
func WithTestUser(r *http.Request, u *TokenUser) *http.Request {
	return withUser(r, u)
}

// helpers

func withUser(r *http.Request, u *TokenUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", false
	}
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(tok), true
}
