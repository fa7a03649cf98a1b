// internal/app/store/polls/pollstore.go
package pollstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/txn"
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
	return &Store{c: db.Collection("polls")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Poll, error) {
	var p models.Poll
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// GetActive loads a poll that has not been deleted. Ended polls are still
// returned; see models.Poll.Open.
func (s *Store) GetActive(ctx context.Context, id primitive.ObjectID) (models.Poll, error) {
	var p models.Poll
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// Create inserts an active poll. p.Options must already be built with
// NewOptions; tallies and votes are reset.
func (s *Store) Create(ctx context.Context, p models.Poll) (models.Poll, error) {
	if len(p.Options) < 2 {
		return models.Poll{}, ErrTooFewOptions
	}
	now := time.Now().UTC()
	if p.EndsAt != nil {
		if !p.EndsAt.After(now) {
			return models.Poll{}, ErrEndsInPast.WithField("ends_at", "must be in the future")
		}
		t := p.EndsAt.UTC()
		p.EndsAt = &t
	}
	p.ID = primitive.NewObjectID()
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	p.University = strings.TrimSpace(p.University)
	for i := range p.Options {
		p.Options[i].Votes = 0
	}
	p.Votes = []models.PollVote{}
	p.Version = 1
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Poll{}, err
	}
	return p, nil
}

// Mutate is the optimistic read-modify-write used for votes and edits.
// It follows the same protocol as the group store: the write is
// conditional on the version read, lost races are retried, and exhaustion
// is txn.ErrConflict.
func (s *Store) Mutate(ctx context.Context, id primitive.ObjectID, fn func(p *models.Poll) error) (models.Poll, error) {
	var out models.Poll
	err := txn.Retry(ctx, txn.MaxAttempts, func(ctx context.Context) error {
		p, err := s.GetActive(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		seen := p.Version
		p.Version = seen + 1
		p.UpdatedAt = time.Now().UTC()

		res, err := s.c.ReplaceOne(ctx, bson.M{"_id": id, "version": seen, "is_active": true}, p)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return txn.ErrStale
		}
		out = p
		return nil
	})
	return out, err
}

// Update applies upd through Mutate.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Poll, error) {
	return s.Mutate(ctx, id, func(p *models.Poll) error {
		return upd.Apply(p, time.Now().UTC())
	})
}

// CastVote records a vote through Mutate.
func (s *Store) CastVote(ctx context.Context, id, user primitive.ObjectID, optionID string) (models.Poll, error) {
	return s.Mutate(ctx, id, func(p *models.Poll) error {
		_, err := Vote(p, user, optionID, time.Now().UTC())
		return err
	})
}

// SoftDelete deactivates the poll. Returns mongo.ErrNoDocuments when no
// active poll has that ID.
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

// Filter narrows List. Open selects polls still accepting votes (true) or
// ended (false); nil means both. Now defaults to the current time.
type Filter struct {
	Category   string
	University string
	OwnerID    *primitive.ObjectID
	Open       *bool
	Now        time.Time
}

func exactCI(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(s)) + "$", Options: "i"}
}

func (f Filter) bson() bson.M {
	q := bson.M{"is_active": true}
	if strings.TrimSpace(f.Category) != "" {
		q["category"] = exactCI(f.Category)
	}
	if strings.TrimSpace(f.University) != "" {
		q["university"] = exactCI(f.University)
	}
	if f.OwnerID != nil {
		q["owner_id"] = *f.OwnerID
	}
	if f.Open != nil {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		now = now.UTC()
		if *f.Open {
			q["$or"] = bson.A{bson.M{"ends_at": nil}, bson.M{"ends_at": bson.M{"$gt": now}}}
		} else {
			q["ends_at"] = bson.M{"$lte": now}
		}
	}
	return q
}

// List returns a page of active polls, newest first. Individual votes are
// not loaded.
func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.Poll, int64, error) {
	q := f.bson()
	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(p.Limit()).
		SetProjection(bson.M{"votes": 0})

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	polls := []models.Poll{}
	if err := cur.All(ctx, &polls); err != nil {
		return nil, 0, err
	}
	return polls, total, nil
}

// ListByOwner returns a user's active polls, newest first.
func (s *Store) ListByOwner(ctx context.Context, owner primitive.ObjectID, p paging.Params) ([]models.Poll, int64, error) {
	return s.List(ctx, Filter{OwnerID: &owner}, p)
}
