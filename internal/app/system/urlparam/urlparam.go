// internal/app/system/urlparam/urlparam.go
package urlparam

import (
	"net/http"
	"strings"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID parses the chi path parameter name. A malformed ID cannot name
// a record, so it is reported as NotFound.
func ObjectID(r *http.Request, name, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound(what + " not found")
	}
	return id, nil
}

// QueryObjectID parses an optional query parameter. Absent is (nil, nil);
// malformed is a validation error on that field.
func QueryObjectID(r *http.Request, name string) (*primitive.ObjectID, error) {
	raw := query.Get(r, name)
	if raw == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.Validation("invalid "+name).WithField(name, "not a valid ID")
	}
	return &id, nil
}

// QueryBool parses an optional boolean query parameter. Anything other
// than true/false (any case, or 1/0) is treated as absent.
func QueryBool(r *http.Request, name string) *bool {
	var v bool
	switch strings.ToLower(query.Get(r, name)) {
	case "true", "1":
		v = true
	case "false", "0":
		v = false
	default:
		return nil
	}
	return &v
}
