// internal/app/features/reactions/handler.go
package reactions

import (
	"context"
	"fmt"

	commentstore "github.com/dalemusser/campusforum/internal/app/store/comments"
	forumstore "github.com/dalemusser/campusforum/internal/app/store/forums"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves likes and dislikes. The same handler is mounted under
// /forums/{id}/react and /comments/{id}/react; the target type is fixed
// per route.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// tally is the current counter pair of a target.
type tally struct {
	Likes    int
	Dislikes int
}

// load returns the counters of an active target, or a NotFound error.
func (h *Handler) load(ctx context.Context, targetType string, id primitive.ObjectID) (tally, error) {
	switch targetType {
	case models.TargetForum:
		f, err := forumstore.New(h.DB).GetActive(ctx, id)
		if err == mongo.ErrNoDocuments {
			return tally{}, apperr.NotFound("forum not found")
		}
		return tally{f.LikeCount, f.DislikeCount}, err
	case models.TargetComment:
		c, err := commentstore.New(h.DB).GetActive(ctx, id)
		if err == mongo.ErrNoDocuments {
			return tally{}, apperr.NotFound("comment not found")
		}
		return tally{c.LikeCount, c.DislikeCount}, err
	}
	return tally{}, fmt.Errorf("reactions: unknown target type %q", targetType)
}

// adjust moves the target's counters. kind is the reaction type gaining
// (n > 0) or losing (n < 0) a vote.
func (h *Handler) adjust(ctx context.Context, targetType string, id primitive.ObjectID, kind string, n int) error {
	likes, dislikes := 0, 0
	if kind == models.ReactionLike {
		likes = n
	} else {
		dislikes = n
	}
	switch targetType {
	case models.TargetForum:
		return forumstore.New(h.DB).AdjustReactions(ctx, id, likes, dislikes)
	case models.TargetComment:
		return commentstore.New(h.DB).AdjustReactions(ctx, id, likes, dislikes)
	}
	return fmt.Errorf("reactions: unknown target type %q", targetType)
}
