// internal/app/features/groups/groupnew.go
package groups

import (
	"net/http"

	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/domain/models"
)

type createGroupInput struct {
	Name        string   `json:"name" validate:"required,max=100" label:"Name"`
	Description string   `json:"description" validate:"max=2000" label:"Description"`
	LogoURL     string   `json:"logo_url" validate:"httpurl" label:"Logo URL"`
	CoverURL    string   `json:"cover_url" validate:"httpurl" label:"Cover URL"`
	Visibility  string   `json:"visibility" validate:"oneof=open closed secret" label:"Visibility"`
	Categories  []string `json:"categories" validate:"max=10" label:"Categories"`
}

// HandleCreateGroup handles POST /groups. The caller becomes the creator
// and first admin.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in createGroupInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create group")
	defer cancel()

	g, err := groupstore.New(h.DB).Create(ctx, models.Group{
		Name:        in.Name,
		Description: htmlsanitize.Content(in.Description),
		LogoURL:     in.LogoURL,
		CoverURL:    in.CoverURL,
		Visibility:  in.Visibility,
		CreatorID:   uid,
		Categories:  in.Categories,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.GroupCreated(ctx, r, uid, g.ID, g.Name)
	respond.Created(w, "group created", g)
}
