// internal/app/store/reactions/reactionstore.go
package reactionstore

import (
	"context"
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrAlreadyReacted is returned when the user already holds a reaction
// of the requested type on the target.
var ErrAlreadyReacted = apperr.Validation("already reacted")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reactions")}
}

func key(user primitive.ObjectID, targetType string, target primitive.ObjectID) bson.M {
	return bson.M{"user_id": user, "target_type": targetType, "target_id": target}
}

// Get returns the user's reaction on a target, or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, user primitive.ObjectID, targetType string, target primitive.ObjectID) (models.Reaction, error) {
	var r models.Reaction
	if err := s.c.FindOne(ctx, key(user, targetType, target)).Decode(&r); err != nil {
		return models.Reaction{}, err
	}
	return r, nil
}

// Insert records a first reaction. A concurrent insert for the same user
// and target loses on the unique index and gets ErrAlreadyReacted.
func (s *Store) Insert(ctx context.Context, r models.Reaction) (models.Reaction, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Reaction{}, ErrAlreadyReacted
		}
		return models.Reaction{}, err
	}
	return r, nil
}

// SetType switches an existing reaction from one type to another. It
// reports false when the stored reaction no longer has type from.
func (s *Store) SetType(ctx context.Context, user primitive.ObjectID, targetType string, target primitive.ObjectID, from, to string) (bool, error) {
	filter := key(user, targetType, target)
	filter["type"] = from
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"type": to, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Delete removes the user's reaction and returns it so the caller can
// decrement the right counter. mongo.ErrNoDocuments when there is none.
func (s *Store) Delete(ctx context.Context, user primitive.ObjectID, targetType string, target primitive.ObjectID) (models.Reaction, error) {
	var r models.Reaction
	if err := s.c.FindOneAndDelete(ctx, key(user, targetType, target)).Decode(&r); err != nil {
		return models.Reaction{}, err
	}
	return r, nil
}

// Counts tallies the reactions on a target by type.
func (s *Store) Counts(ctx context.Context, targetType string, target primitive.ObjectID) (likes, dislikes int64, err error) {
	base := bson.M{"target_type": targetType, "target_id": target}
	base["type"] = models.ReactionLike
	if likes, err = s.c.CountDocuments(ctx, base); err != nil {
		return 0, 0, err
	}
	base["type"] = models.ReactionDislike
	if dislikes, err = s.c.CountDocuments(ctx, base); err != nil {
		return 0, 0, err
	}
	return likes, dislikes, nil
}
