// internal/app/features/media/media.go
package media

import (
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/policy/contentpolicy"
	mediastore "github.com/dalemusser/campusforum/internal/app/store/media"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeMedia handles GET /media/{id}.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "media")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get media")
	defer cancel()

	m, err := mediastore.New(h.DB).GetActive(ctx, id)
	if err == mongo.ErrNoDocuments {
		err = errMediaNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "", m)
}

// ServeMediaList handles GET /media?related_type=&related_id= and
// GET /media?uploader=. One of related_type or uploader is required.
func (h *Handler) ServeMediaList(w http.ResponseWriter, r *http.Request) {
	relatedID, err := urlparam.QueryObjectID(r, "related_id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	uploader, err := urlparam.QueryObjectID(r, "uploader")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	relatedType := query.Get(r, "related_type")
	if relatedType == "" && uploader == nil {
		respond.Error(w, r, h.Log, apperr.Validation("related_type or uploader is required").
			WithField("related_type", "Related type is required."))
		return
	}
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list media")
	defer cancel()

	var (
		rows  []models.Media
		total int64
	)
	store := mediastore.New(h.DB)
	if uploader != nil {
		rows, total, err = store.ListByUploader(ctx, *uploader, p)
	} else {
		rows, total, err = store.ListByRelated(ctx, relatedType, relatedID, p)
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.List(w, "", rows, p.MetaFor(total))
}

// HandleDeleteMedia handles DELETE /media/{id} (uploader or site admin).
// The blob goes first; the record is only deactivated once it is gone.
func (h *Handler) HandleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "media")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete media")
	defer cancel()

	store := mediastore.New(h.DB)
	m, err := store.GetActive(ctx, id)
	if err == mongo.ErrNoDocuments {
		err = errMediaNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !contentpolicy.CanEdit(r, m.UploaderID) {
		respond.Error(w, r, h.Log, apperr.Forbidden("you can only delete your own uploads"))
		return
	}
	if h.Blobs != nil {
		if err := h.Blobs.Delete(ctx, m.StorageKey); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}
	if err := store.SoftDelete(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			err = errMediaNotFound
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "media deleted", map[string]primitive.ObjectID{"id": id})
}
