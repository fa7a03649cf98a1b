// internal/app/store/media/mediastore.go
package mediastore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("media")}
}

// GetActive loads active media metadata.
func (s *Store) GetActive(ctx context.Context, id primitive.ObjectID) (models.Media, error) {
	var m models.Media
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&m); err != nil {
		return models.Media{}, err
	}
	return m, nil
}

// Create records metadata for a blob that has already been stored.
func (s *Store) Create(ctx context.Context, m models.Media) (models.Media, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.IsActive = true
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Media{}, err
	}
	return m, nil
}

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

// ListByRelated returns active media attached to one record, newest first.
// A nil relatedID lists everything of relatedType.
func (s *Store) ListByRelated(ctx context.Context, relatedType string, relatedID *primitive.ObjectID, p paging.Params) ([]models.Media, int64, error) {
	q := bson.M{"related_type": relatedType, "is_active": true}
	if relatedID != nil {
		q["related_id"] = *relatedID
	}
	return s.page(ctx, q, p)
}

// ListByUploader returns a user's active uploads, newest first.
func (s *Store) ListByUploader(ctx context.Context, uploader primitive.ObjectID, p paging.Params) ([]models.Media, int64, error) {
	return s.page(ctx, bson.M{"uploader_id": uploader, "is_active": true}, p)
}

func (s *Store) page(ctx context.Context, q bson.M, p paging.Params) ([]models.Media, int64, error) {
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

	items := []models.Media{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
