package userstore

import (
	"context"

	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/normalize"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher so a deleted account or a changed
// site role takes effect on the next request instead of at token expiry.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// FetchUser returns nil if the user is not found, inactive, or on any error.
func (f *Fetcher) FetchUser(ctx context.Context, id primitive.ObjectID) *auth.TokenUser {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"username":  1,
		"role":      1,
		"is_active": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&u); err != nil {
		return nil
	}
	if !u.IsActive {
		return nil
	}
	return &auth.TokenUser{
		ID:       u.ID,
		Username: u.Username,
		Role:     normalize.Role(u.Role),
	}
}

var _ auth.UserFetcher = (*Fetcher)(nil)
