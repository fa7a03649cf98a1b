package contentpolicy_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/campusforum/internal/app/policy/contentpolicy"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPolicy(t *testing.T) {
	owner := primitive.NewObjectID()
	forumOwner := primitive.NewObjectID()

	tests := []struct {
		name         string
		user         *auth.TokenUser
		wantEdit     bool
		wantModerate bool
	}{
		{"anonymous", nil, false, false},
		{"owner", &auth.TokenUser{ID: owner, Role: "user"}, true, true},
		{"forum owner", &auth.TokenUser{ID: forumOwner, Role: "user"}, false, true},
		{"stranger", &auth.TokenUser{ID: primitive.NewObjectID(), Role: "user"}, false, false},
		{"moderator", &auth.TokenUser{ID: primitive.NewObjectID(), Role: "moderator"}, false, true},
		{"admin", &auth.TokenUser{ID: primitive.NewObjectID(), Role: "admin"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			if got := contentpolicy.CanEdit(req, owner); got != tt.wantEdit {
				t.Errorf("CanEdit = %v, want %v", got, tt.wantEdit)
			}
			if got := contentpolicy.CanModerate(req, owner, forumOwner); got != tt.wantModerate {
				t.Errorf("CanModerate = %v, want %v", got, tt.wantModerate)
			}
		})
	}
}
