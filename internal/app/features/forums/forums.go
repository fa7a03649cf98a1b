// internal/app/features/forums/forums.go
package forums

import (
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/policy/contentpolicy"
	forumstore "github.com/dalemusser/campusforum/internal/app/store/forums"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errNoChanges = apperr.Validation("no updatable fields supplied")

type createForumInput struct {
	Title       string   `json:"title" validate:"required,max=200" label:"Title"`
	Description string   `json:"description" validate:"max=10000" label:"Description"`
	Category    string   `json:"category" validate:"max=100" label:"Category"`
	University  string   `json:"university" validate:"max=100" label:"University"`
	PhotoURLs   []string `json:"photo_urls" validate:"max=10,httpurl" label:"Photos"`
}

// HandleCreateForum handles POST /forums. Titles are plain text; the
// description keeps safe markup only.
func (h *Handler) HandleCreateForum(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in createForumInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Title = htmlsanitize.StripTags(in.Title)
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create forum")
	defer cancel()

	f, err := forumstore.New(h.DB).Create(ctx, models.Forum{
		Title:       in.Title,
		Description: htmlsanitize.Content(in.Description),
		OwnerID:     uid,
		Category:    in.Category,
		University:  in.University,
		PhotoURLs:   in.PhotoURLs,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "forum created", f)
}

type editForumInput struct {
	Title       *string   `json:"title" validate:"nonblank,max=200" label:"Title"`
	Description *string   `json:"description" validate:"max=10000" label:"Description"`
	Category    *string   `json:"category" validate:"max=100" label:"Category"`
	University  *string   `json:"university" validate:"max=100" label:"University"`
	PhotoURLs   *[]string `json:"photo_urls" validate:"max=10,httpurl" label:"Photos"`
}

// HandleEditForum handles PUT /forums/{id} (owner or site admin).
func (h *Handler) HandleEditForum(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "forum")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in editForumInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.Title != nil {
		t := htmlsanitize.StripTags(*in.Title)
		in.Title = &t
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	upd := forumstore.Update{
		Title:      in.Title,
		Category:   in.Category,
		University: in.University,
		PhotoURLs:  in.PhotoURLs,
	}
	if in.Description != nil {
		d := htmlsanitize.Content(*in.Description)
		upd.Description = &d
	}
	if upd == (forumstore.Update{}) {
		respond.Error(w, r, h.Log, errNoChanges)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "edit forum")
	defer cancel()

	store := forumstore.New(h.DB)
	f, err := store.GetActive(ctx, id)
	if err == mongo.ErrNoDocuments {
		err = errForumNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !contentpolicy.CanEdit(r, f.OwnerID) {
		respond.Error(w, r, h.Log, apperr.Forbidden("you can only edit your own forums"))
		return
	}

	f, err = store.Update(ctx, id, upd)
	if err == mongo.ErrNoDocuments {
		err = errForumNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "forum updated", f)
}

// HandleDeleteForum handles DELETE /forums/{id} (owner, site admin or
// moderator). Comments stay in place and disappear with the forum.
func (h *Handler) HandleDeleteForum(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "forum")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete forum")
	defer cancel()

	store := forumstore.New(h.DB)
	f, err := store.GetActive(ctx, id)
	if err == mongo.ErrNoDocuments {
		err = errForumNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !contentpolicy.CanModerate(r, f.OwnerID) {
		respond.Error(w, r, h.Log, apperr.Forbidden("you can only delete your own forums"))
		return
	}
	if err := store.SoftDelete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			err = errForumNotFound
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "forum deleted", map[string]primitive.ObjectID{"id": id})
}
