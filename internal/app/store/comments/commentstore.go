// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"time"

	"github.com/dalemusser/campusforum/internal/app/store/counters"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// GetActive loads an active comment. Soft-deleted comments are mongo.ErrNoDocuments.
func (s *Store) GetActive(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// Create inserts an active comment with zeroed reaction counters. The
// caller checks that the forum and parent exist.
func (s *Store) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	if c.PhotoURLs == nil {
		c.PhotoURLs = []string{}
	}
	c.LikeCount, c.DislikeCount = 0, 0
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// Update holds owner-editable comment fields. Nil means unchanged.
type Update struct {
	Content   *string
	PhotoURLs *[]string
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Comment, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.PhotoURLs != nil {
		photos := *upd.PhotoURLs
		if photos == nil {
			photos = []string{}
		}
		set["photo_urls"] = photos
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Comment
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "is_active": true}, bson.M{"$set": set}, opts).Decode(&c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// SoftDelete deactivates the comment. Replies are left in place. Returns
// mongo.ErrNoDocuments when no active comment has that ID.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "is_active": true}, bson.M{"$set": bson.M{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AdjustReactions adds to like_count and dislike_count, never below zero.
func (s *Store) AdjustReactions(ctx context.Context, id primitive.ObjectID, likes, dislikes int) error {
	_, err := counters.Adjust(ctx, s.c, bson.M{"_id": id}, map[string]int{
		"like_count":    likes,
		"dislike_count": dislikes,
	})
	return err
}

// ListByForum returns the active top-level comments of a forum, oldest first.
func (s *Store) ListByForum(ctx context.Context, forum primitive.ObjectID, p paging.Params) ([]models.Comment, int64, error) {
	q := bson.M{"forum_id": forum, "parent_id": nil, "is_active": true}
	return s.page(ctx, q, 1, p)
}

// ListReplies returns the active direct replies to a comment, oldest first.
func (s *Store) ListReplies(ctx context.Context, parent primitive.ObjectID, p paging.Params) ([]models.Comment, int64, error) {
	q := bson.M{"parent_id": parent, "is_active": true}
	return s.page(ctx, q, 1, p)
}

// ListByOwner returns a user's active comments, newest first.
func (s *Store) ListByOwner(ctx context.Context, owner primitive.ObjectID, p paging.Params) ([]models.Comment, int64, error) {
	q := bson.M{"owner_id": owner, "is_active": true}
	return s.page(ctx, q, -1, p)
}

func (s *Store) page(ctx context.Context, q bson.M, dir int, p paging.Params) ([]models.Comment, int64, error) {
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(p.Skip()).
		SetLimit(p.Limit())

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	comments := []models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}
