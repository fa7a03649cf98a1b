// internal/app/features/reactions/react.go
package reactions

import (
	"context"
	"net/http"

	reactionstore "github.com/dalemusser/campusforum/internal/app/store/reactions"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/txn"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errNoReaction = apperr.NotFound("no reaction to remove")

type reactInput struct {
	Type string `json:"type" validate:"required,oneof=like dislike" label:"Type"`
}

// reactionView is returned by both endpoints: the caller's reaction, if
// any, and the target's counters after the change.
type reactionView struct {
	TargetType   string             `json:"target_type"`
	TargetID     primitive.ObjectID `json:"target_id"`
	Type         string             `json:"type,omitempty"`
	LikeCount    int                `json:"like_count"`
	DislikeCount int                `json:"dislike_count"`
}

// HandleReact returns the POST .../{id}/react handler for targetType.
// A first reaction is recorded, a different type switches the reaction,
// and repeating the same type is rejected.
func (h *Handler) HandleReact(targetType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, uid, _ := authz.UserCtx(r)

		id, err := urlparam.ObjectID(r, "id", targetType)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		var in reactInput
		if err := respond.Decode(w, r, &in); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		if err := inputval.Validate(&in).Err(); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "react")
		defer cancel()

		store := reactionstore.New(h.DB)
		err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
			if _, err := h.load(ctx, targetType, id); err != nil {
				return err
			}
			prev, err := store.Get(ctx, uid, targetType, id)
			if err == mongo.ErrNoDocuments {
				if _, err := store.Insert(ctx, models.Reaction{
					UserID:     uid,
					TargetType: targetType,
					TargetID:   id,
					Type:       in.Type,
				}); err != nil {
					return err
				}
				return h.adjust(ctx, targetType, id, in.Type, 1)
			}
			if err != nil {
				return err
			}
			if prev.Type == in.Type {
				return reactionstore.ErrAlreadyReacted
			}
			switched, err := store.SetType(ctx, uid, targetType, id, prev.Type, in.Type)
			if err != nil {
				return err
			}
			if !switched {
				return txn.ErrConflict
			}
			if err := h.adjust(ctx, targetType, id, prev.Type, -1); err != nil {
				return err
			}
			return h.adjust(ctx, targetType, id, in.Type, 1)
		})
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		h.respondCounts(ctx, w, r, targetType, id, in.Type)
	}
}

// HandleUnreact returns the DELETE .../{id}/react handler for targetType.
func (h *Handler) HandleUnreact(targetType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, uid, _ := authz.UserCtx(r)

		id, err := urlparam.ObjectID(r, "id", targetType)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}

		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "unreact")
		defer cancel()

		err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
			if _, err := h.load(ctx, targetType, id); err != nil {
				return err
			}
			prev, err := reactionstore.New(h.DB).Delete(ctx, uid, targetType, id)
			if err == mongo.ErrNoDocuments {
				return errNoReaction
			}
			if err != nil {
				return err
			}
			return h.adjust(ctx, targetType, id, prev.Type, -1)
		})
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		h.respondCounts(ctx, w, r, targetType, id, "")
	}
}

func (h *Handler) respondCounts(ctx context.Context, w http.ResponseWriter, r *http.Request, targetType string, id primitive.ObjectID, kind string) {
	t, err := h.load(ctx, targetType, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "", reactionView{
		TargetType:   targetType,
		TargetID:     id,
		Type:         kind,
		LikeCount:    t.Likes,
		DislikeCount: t.Dislikes,
	})
}
