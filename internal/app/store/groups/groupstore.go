// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/campusforum/internal/app/membership"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/normalize"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/txn"
	"github.com/dalemusser/campusforum/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateGroupName = apperr.Validation("a group with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func dupErr(err error) error {
	if wafflemongo.IsDup(err) {
		return ErrDuplicateGroupName.WithField("name", "already in use")
	}
	return err
}

// GetByID loads a group whether or not it is active.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetActive loads an active group. Soft-deleted groups are mongo.ErrNoDocuments.
func (s *Store) GetActive(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByNameCI finds an active group by folded name.
func (s *Store) GetByNameCI(ctx context.Context, name string) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(normalize.Name(name)), "is_active": true}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts an active group with its creator seeded as admin.
// Visibility defaults to open.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Name = normalize.Name(g.Name)
	g.NameCI = text.Fold(g.Name)
	if g.Visibility == "" {
		g.Visibility = models.VisibilityOpen
	}
	g.Categories = normalize.Tags(g.Categories)
	membership.Seed(&g, now)
	g.Version = 1
	g.IsActive = true
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, dupErr(err)
	}
	return g, nil
}

// Update holds editable group fields. Nil means unchanged.
type Update struct {
	Name        *string
	Description *string
	LogoURL     *string
	CoverURL    *string
	Visibility  *string
	Categories  *[]string
}

// Fields lists the bson names of the set fields, for audit details.
func (u Update) Fields() []string {
	var out []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"name", u.Name != nil},
		{"description", u.Description != nil},
		{"logo_url", u.LogoURL != nil},
		{"cover_url", u.CoverURL != nil},
		{"visibility", u.Visibility != nil},
		{"categories", u.Categories != nil},
	} {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}

// Update applies upd to an active group and returns the result. The
// version is bumped so any in-flight Mutate of the old copy retries.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Group, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.LogoURL != nil {
		set["logo_url"] = strings.TrimSpace(*upd.LogoURL)
	}
	if upd.CoverURL != nil {
		set["cover_url"] = strings.TrimSpace(*upd.CoverURL)
	}
	if upd.Visibility != nil {
		set["visibility"] = *upd.Visibility
	}
	if upd.Categories != nil {
		set["categories"] = normalize.Tags(*upd.Categories)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		opts,
	).Decode(&g)
	if err != nil {
		return models.Group{}, dupErr(err)
	}
	return g, nil
}

// SoftDelete deactivates the group. Returns mongo.ErrNoDocuments when no
// active group has that ID.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "is_active": true}, bson.M{
		"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Mutate runs an optimistic read-modify-write on an active group: fn edits
// a fresh copy, which is written back only if nobody else wrote in
// between. Lost races are retried up to txn.MaxAttempts times, then
// txn.ErrConflict is returned. An error from fn aborts without writing.
func (s *Store) Mutate(ctx context.Context, id primitive.ObjectID, fn func(g *models.Group) error) (models.Group, error) {
	var out models.Group
	err := txn.Retry(ctx, txn.MaxAttempts, func(ctx context.Context) error {
		g, err := s.GetActive(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(&g); err != nil {
			return err
		}
		seen := g.Version
		g.Version = seen + 1
		g.UpdatedAt = time.Now().UTC()

		res, err := s.c.ReplaceOne(ctx, bson.M{"_id": id, "version": seen, "is_active": true}, g)
		if err != nil {
			return dupErr(err)
		}
		if res.MatchedCount == 0 {
			return txn.ErrStale
		}
		out = g
		return nil
	})
	return out, err
}

// Filter narrows List. Zero fields are ignored.
type Filter struct {
	Search        string // substring of name or description, case-insensitive
	Category      string
	CreatorID     *primitive.ObjectID
	IncludeSecret bool
}

func (f Filter) bson() bson.M {
	q := bson.M{"is_active": true}
	if !f.IncludeSecret {
		q["visibility"] = bson.M{"$ne": models.VisibilitySecret}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(s)), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name_ci": re},
			bson.M{"description": re},
		}
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q["categories"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(c) + "$", Options: "i"}
	}
	if f.CreatorID != nil {
		q["creator_id"] = *f.CreatorID
	}
	return q
}

// List returns a page of active groups, newest first, with the total count.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.Group, int64, error) {
	return s.page(ctx, f.bson(), p)
}

// ListByMember returns the active groups where user is an active member.
// Secret groups are included only when includeSecret is set.
func (s *Store) ListByMember(ctx context.Context, user primitive.ObjectID, includeSecret bool, p paging.Params) ([]models.Group, int64, error) {
	q := bson.M{
		"is_active": true,
		"members": bson.M{"$elemMatch": bson.M{
			"user_id": user,
			"status":  models.MemberStatusActive,
		}},
	}
	if !includeSecret {
		q["visibility"] = bson.M{"$ne": models.VisibilitySecret}
	}
	return s.page(ctx, q, p)
}

func (s *Store) page(ctx context.Context, q bson.M, p paging.Params) ([]models.Group, int64, error) {
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(p.Limit()).
		SetProjection(bson.M{"members": 0})

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	groups := []models.Group{}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}
