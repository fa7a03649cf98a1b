// internal/app/features/groups/groupedit.go
package groups

import (
	"net/http"
	"strings"

	"github.com/dalemusser/campusforum/internal/app/policy/grouppolicy"
	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type editGroupInput struct {
	Name        *string   `json:"name" validate:"nonblank,max=100" label:"Name"`
	Description *string   `json:"description" validate:"max=2000" label:"Description"`
	LogoURL     *string   `json:"logo_url" validate:"httpurl" label:"Logo URL"`
	CoverURL    *string   `json:"cover_url" validate:"httpurl" label:"Cover URL"`
	Visibility  *string   `json:"visibility" validate:"nonblank,oneof=open closed secret" label:"Visibility"`
	Categories  *[]string `json:"categories" validate:"max=10" label:"Categories"`
}

// HandleEditGroup handles PUT /groups/{id}. Only the whitelisted settings
// change; membership is never touched here.
func (h *Handler) HandleEditGroup(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in editGroupInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	upd := groupstore.Update{
		Name:       in.Name,
		LogoURL:    in.LogoURL,
		CoverURL:   in.CoverURL,
		Visibility: in.Visibility,
		Categories: in.Categories,
	}
	if in.Description != nil {
		d := htmlsanitize.Content(*in.Description)
		upd.Description = &d
	}
	fields := upd.Fields()
	if len(fields) == 0 {
		respond.Error(w, r, h.Log, errNoChanges)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "edit group")
	defer cancel()

	g, err := h.loadGroup(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !grouppolicy.CanEdit(r, &g) {
		respond.Error(w, r, h.Log, apperr.Forbidden("only group admins can edit this group"))
		return
	}

	g, err = groupstore.New(h.DB).Update(ctx, g.ID, upd)
	if err == mongo.ErrNoDocuments {
		err = errGroupNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.GroupUpdated(ctx, r, uid, g.ID, strings.Join(fields, ","))
	respond.OK(w, "group updated", g)
}
