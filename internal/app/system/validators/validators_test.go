package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/validators"
	"github.com/dalemusser/campusforum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "groups", "forums", "comments", "polls", "media", "reactions", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func validGroup() bson.M {
	uid := primitive.NewObjectID()
	return bson.M{
		"name":         "Chess Club",
		"name_ci":      "chess club",
		"visibility":   "open",
		"creator_id":   uid,
		"member_count": 1,
		"version":      int64(1),
		"members": bson.A{
			bson.M{"user_id": uid, "role": "admin", "status": "active", "joined_at": time.Now()},
		},
	}
}

func TestValidators(t *testing.T) {
	db := setup(t)

	uid := primitive.NewObjectID()
	now := time.Now()

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{
			name: "valid user",
			coll: "users",
			doc: bson.M{"email": "a@b.io", "username": "alice", "username_ci": "alice",
				"password_hash": "x", "role": "user", "is_active": true},
		},
		{name: "user missing fields", coll: "users", doc: bson.M{"username": "bob"}, wantErr: true},
		{
			name: "user bad role",
			coll: "users",
			doc: bson.M{"email": "a@b.io", "username": "carol", "username_ci": "carol",
				"password_hash": "x", "role": "superadmin", "is_active": true},
			wantErr: true,
		},
		{name: "valid group", coll: "groups", doc: validGroup()},
		{
			name: "group bad visibility",
			coll: "groups",
			doc: func() bson.M {
				g := validGroup()
				g["visibility"] = "public"
				return g
			}(),
			wantErr: true,
		},
		{
			name: "group negative count",
			coll: "groups",
			doc: func() bson.M {
				g := validGroup()
				g["member_count"] = -1
				return g
			}(),
			wantErr: true,
		},
		{
			name: "group bad member status",
			coll: "groups",
			doc: func() bson.M {
				g := validGroup()
				g["members"] = bson.A{bson.M{"user_id": uid, "role": "admin", "status": "invited"}}
				return g
			}(),
			wantErr: true,
		},
		{
			name: "valid forum",
			coll: "forums",
			doc: bson.M{"title": "Exams", "title_ci": "exams", "owner_id": uid,
				"comment_count": 0, "like_count": 0, "dislike_count": 0},
		},
		{name: "forum blank title", coll: "forums", doc: bson.M{"title": "  ", "title_ci": "", "owner_id": uid,
			"comment_count": 0, "like_count": 0, "dislike_count": 0}, wantErr: true},
		{
			name: "valid reply",
			coll: "comments",
			doc: bson.M{"forum_id": primitive.NewObjectID(), "owner_id": uid, "parent_id": primitive.NewObjectID(),
				"content": "agreed", "like_count": 0, "dislike_count": 0},
		},
		{name: "comment missing content", coll: "comments", doc: bson.M{"forum_id": primitive.NewObjectID(), "owner_id": uid,
			"like_count": 0, "dislike_count": 0}, wantErr: true},
		{
			name: "valid poll",
			coll: "polls",
			doc: bson.M{"title": "Lunch?", "owner_id": uid, "version": int64(1), "ends_at": now.Add(time.Hour),
				"options": bson.A{bson.M{"id": "opt1", "text": "Yes", "votes": 0}, bson.M{"id": "opt2", "text": "No", "votes": 0}}},
		},
		{
			name: "poll single option",
			coll: "polls",
			doc: bson.M{"title": "Lunch?", "owner_id": uid, "version": int64(1),
				"options": bson.A{bson.M{"id": "opt1", "text": "Yes", "votes": 0}}},
			wantErr: true,
		},
		{
			name: "valid media",
			coll: "media",
			doc: bson.M{"file_name": "a.png", "content_type": "image/png", "size": int64(10), "url": "http://x/a.png",
				"storage_key": "media/2026/01/a.png", "uploader_id": uid, "related_type": "forum"},
		},
		{
			name: "media bad related type",
			coll: "media",
			doc: bson.M{"file_name": "a.png", "content_type": "image/png", "size": int64(10), "url": "http://x/a.png",
				"storage_key": "k", "uploader_id": uid, "related_type": "planet"},
			wantErr: true,
		},
		{name: "valid reaction", coll: "reactions", doc: bson.M{"user_id": uid, "target_type": "forum", "target_id": primitive.NewObjectID(), "type": "like"}},
		{name: "reaction bad type", coll: "reactions", doc: bson.M{"user_id": uid, "target_type": "forum", "target_id": primitive.NewObjectID(), "type": "love"}, wantErr: true},
		{name: "audit has no validator", coll: "audit_events", doc: bson.M{"anything": "goes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()

			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error inserting into %s", tt.coll)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("insert into %s failed: %v", tt.coll, err)
			}
		})
	}
}
