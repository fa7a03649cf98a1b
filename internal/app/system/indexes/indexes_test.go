package indexes_test

import (
	"testing"

	"github.com/dalemusser/campusforum/internal/app/system/indexes"
	"github.com/dalemusser/campusforum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		collection string
		expected   []string
	}{
		{"users", []string{"uniq_users_email", "uniq_users_usernameci"}},
		{"groups", []string{"uniq_groups_nameci_active", "idx_groups_active_visibility_created", "idx_groups_members_user", "idx_groups_categories"}},
		{"forums", []string{"idx_forums_active_created", "idx_forums_owner_created", "idx_forums_category_created", "idx_forums_university_created"}},
		{"comments", []string{"idx_comments_forum_parent_created", "idx_comments_parent_created", "idx_comments_owner_created"}},
		{"polls", []string{"idx_polls_active_created", "idx_polls_owner_created", "idx_polls_category_ends"}},
		{"media", []string{"idx_media_related_created", "idx_media_uploader_created"}},
		{"reactions", []string{"uniq_reactions_user_target", "idx_reactions_target"}},
		{"audit_events", []string{"idx_audit_group_created", "idx_audit_actor_created", "idx_audit_created"}},
	}

	for _, tt := range tests {
		t.Run(tt.collection, func(t *testing.T) {
			cur, err := db.Collection(tt.collection).Indexes().List(ctx)
			if err != nil {
				t.Fatalf("List indexes failed: %v", err)
			}
			defer cur.Close(ctx)

			names := make(map[string]bool)
			for cur.Next(ctx) {
				var idx bson.M
				if err := cur.Decode(&idx); err != nil {
					continue
				}
				if name, ok := idx["name"].(string); ok {
					names[name] = true
				}
			}
			for _, name := range tt.expected {
				if !names[name] {
					t.Errorf("expected index %q on %s", name, tt.collection)
				}
			}
		})
	}
}

func TestEnsureAll_GroupNameUniqueAmongActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := db.Collection("groups")
	if _, err := c.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "name_ci": "chess", "is_active": true}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := c.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "name_ci": "chess", "is_active": true})
	if !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
	// A soft-deleted group with the same name is outside the partial index.
	if _, err := c.InsertOne(ctx, bson.M{"_id": primitive.NewObjectID(), "name_ci": "chess", "is_active": false}); err != nil {
		t.Errorf("inactive duplicate should be allowed: %v", err)
	}
}

func TestEnsureAll_OneReactionPerUserTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doc := bson.M{"user_id": primitive.NewObjectID(), "target_type": "forum", "target_id": primitive.NewObjectID(), "type": "like"}
	c := db.Collection("reactions")
	if _, err := c.InsertOne(ctx, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	delete(doc, "_id")
	doc["type"] = "dislike"
	if _, err := c.InsertOne(ctx, doc); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}
