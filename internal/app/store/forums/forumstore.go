// internal/app/store/forums/forumstore.go
package forumstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/campusforum/internal/app/store/counters"
	"github.com/dalemusser/campusforum/internal/app/system/normalize"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("forums")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Forum, error) {
	var f models.Forum
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return models.Forum{}, err
	}
	return f, nil
}

// GetActive loads an active forum. Soft-deleted forums are mongo.ErrNoDocuments.
func (s *Store) GetActive(ctx context.Context, id primitive.ObjectID) (models.Forum, error) {
	var f models.Forum
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&f); err != nil {
		return models.Forum{}, err
	}
	return f, nil
}

// Create inserts an active forum with zeroed counters.
func (s *Store) Create(ctx context.Context, f models.Forum) (models.Forum, error) {
	now := time.Now().UTC()
	f.ID = primitive.NewObjectID()
	f.Title = normalize.Name(f.Title)
	f.TitleCI = text.Fold(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	f.University = strings.TrimSpace(f.University)
	if f.PhotoURLs == nil {
		f.PhotoURLs = []string{}
	}
	f.CommentCount, f.LikeCount, f.DislikeCount = 0, 0, 0
	f.IsActive = true
	f.CreatedAt = now
	f.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.Forum{}, err
	}
	return f, nil
}

// Update holds owner-editable forum fields. Nil means unchanged.
type Update struct {
	Title       *string
	Description *string
	Category    *string
	University  *string
	PhotoURLs   *[]string
}

// Update applies upd to an active forum and returns the result.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Forum, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		title := normalize.Name(*upd.Title)
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Category != nil {
		set["category"] = strings.TrimSpace(*upd.Category)
	}
	if upd.University != nil {
		set["university"] = strings.TrimSpace(*upd.University)
	}
	if upd.PhotoURLs != nil {
		photos := *upd.PhotoURLs
		if photos == nil {
			photos = []string{}
		}
		set["photo_urls"] = photos
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var f models.Forum
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "is_active": true}, bson.M{"$set": set}, opts).Decode(&f); err != nil {
		return models.Forum{}, err
	}
	return f, nil
}

// SoftDelete deactivates the forum. Returns mongo.ErrNoDocuments when no
// active forum has that ID.
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

// AdjustCommentCount adds delta to comment_count, never below zero.
func (s *Store) AdjustCommentCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	_, err := counters.Adjust(ctx, s.c, bson.M{"_id": id}, map[string]int{"comment_count": delta})
	return err
}

// AdjustReactions adds to like_count and dislike_count, never below zero.
func (s *Store) AdjustReactions(ctx context.Context, id primitive.ObjectID, likes, dislikes int) error {
	_, err := counters.Adjust(ctx, s.c, bson.M{"_id": id}, map[string]int{
		"like_count":    likes,
		"dislike_count": dislikes,
	})
	return err
}

// Filter narrows List. Zero fields are ignored.
type Filter struct {
	Search     string // substring of title or description, case-insensitive
	Category   string
	University string
	OwnerID    *primitive.ObjectID
}

func exactCI(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(s)) + "$", Options: "i"}
}

func (f Filter) bson() bson.M {
	q := bson.M{"is_active": true}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(s)), Options: "i"}
		q["$or"] = bson.A{bson.M{"title_ci": re}, bson.M{"description": re}}
	}
	if strings.TrimSpace(f.Category) != "" {
		q["category"] = exactCI(f.Category)
	}
	if strings.TrimSpace(f.University) != "" {
		q["university"] = exactCI(f.University)
	}
	if f.OwnerID != nil {
		q["owner_id"] = *f.OwnerID
	}
	return q
}

// List returns a page of active forums, newest first, with the total count.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.Forum, int64, error) {
	q := f.bson()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(p.Limit())

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	forums := []models.Forum{}
	if err := cur.All(ctx, &forums); err != nil {
		return nil, 0, err
	}
	return forums, total, nil
}
