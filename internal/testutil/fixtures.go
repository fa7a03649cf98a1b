package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/campusforum/internal/app/membership"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "correct-horse-battery"

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the returned request adds to the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

var (
	hashOnce sync.Once
	hashed   string
)

// passwordHash is computed once; bcrypt is slow on purpose.
func passwordHash() string {
	hashOnce.Do(func() {
		b, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		hashed = string(b)
	})
	return hashed
}

// CreateUser inserts an active user with the given site role. The
// password is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        email,
		Username:     username,
		UsernameCI:   text.Fold(username),
		PasswordHash: passwordHash(),
		University:   "Test University",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates a site admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, email, models.RoleAdmin)
}

// CreateModerator creates a site moderator.
func (f *Fixtures) CreateModerator(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, email, models.RoleModerator)
}

// CreateDisabledUser creates a soft-deleted user.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, username, email, models.RoleUser)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, map[string]any{"$set": map[string]any{"is_active": false}}); err != nil {
		f.t.Fatalf("failed to disable test user: %v", err)
	}
	u.IsActive = false
	return u
}

// CreateGroup creates an active group owned by creator.
func (f *Fixtures) CreateGroup(ctx context.Context, name, visibility string, creator primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test group description",
		Visibility:  visibility,
		CreatorID:   creator,
		Categories:  []string{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	membership.Seed(&g, now)
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// AddGroupMember writes a member entry through the administrative path
// and bumps the version like a real write.
func (f *Fixtures) AddGroupMember(ctx context.Context, g *models.Group, user primitive.ObjectID, role, status string) {
	f.t.Helper()
	if err := membership.AddMember(g, user, role, status, time.Now().UTC()); err != nil {
		f.t.Fatalf("AddMember: %v", err)
	}
	g.Version++
	_, err := f.db.Collection("groups").ReplaceOne(ctx, map[string]any{"_id": g.ID}, g)
	if err != nil {
		f.t.Fatalf("failed to save group members: %v", err)
	}
}

// CreateForum creates an active forum.
func (f *Fixtures) CreateForum(ctx context.Context, title string, owner primitive.ObjectID) models.Forum {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	fm := models.Forum{
		ID:          primitive.NewObjectID(),
		Title:       title,
		TitleCI:     text.Fold(title),
		Description: "Test forum description",
		OwnerID:     owner,
		Category:    "general",
		University:  "Test University",
		PhotoURLs:   []string{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("forums").InsertOne(ctx, fm); err != nil {
		f.t.Fatalf("failed to create test forum: %v", err)
	}
	return fm
}

// CreateComment creates an active comment. parent may be nil.
func (f *Fixtures) CreateComment(ctx context.Context, forum primitive.ObjectID, owner primitive.ObjectID, parent *primitive.ObjectID, content string) models.Comment {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	c := models.Comment{
		ID:        primitive.NewObjectID(),
		ForumID:   forum,
		OwnerID:   owner,
		ParentID:  parent,
		Content:   content,
		PhotoURLs: []string{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// CreatePoll creates an open poll with one option per text. Option IDs are
// "opt1", "opt2", and so on.
func (f *Fixtures) CreatePoll(ctx context.Context, title string, owner primitive.ObjectID, options ...string) models.Poll {
	f.t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	p := models.Poll{
		ID:        primitive.NewObjectID(),
		Title:     title,
		OwnerID:   owner,
		Category:  "general",
		Votes:     []models.PollVote{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, o := range options {
		p.Options = append(p.Options, models.PollOption{ID: fmt.Sprintf("opt%d", i+1), Text: o})
	}
	if _, err := f.db.Collection("polls").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test poll: %v", err)
	}
	return p
}
