package commentstore_test

import (
	"testing"

	commentstore "github.com/dalemusser/campusforum/internal/app/store/comments"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/campusforum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateUpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	forum, owner := primitive.NewObjectID(), primitive.NewObjectID()
	c, err := store.Create(ctx, models.Comment{ForumID: forum, OwnerID: owner, Content: "first", LikeCount: 4})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.LikeCount != 0 || c.PhotoURLs == nil || c.IsReply() {
		t.Errorf("created = %+v", c)
	}

	content := "edited"
	got, err := store.Update(ctx, c.ID, commentstore.Update{Content: &content})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Content != "edited" || got.ForumID != forum {
		t.Errorf("updated = %+v", got)
	}

	if err := store.SoftDelete(ctx, c.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := store.GetActive(ctx, c.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetActive after delete err = %v", err)
	}
	if err := store.SoftDelete(ctx, c.ID); err != mongo.ErrNoDocuments {
		t.Errorf("second SoftDelete err = %v", err)
	}
	if raw, err := store.GetByID(ctx, c.ID); err != nil || raw.IsActive {
		t.Errorf("GetByID = %+v, %v", raw, err)
	}
}

func TestStore_Threads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	forum, other := primitive.NewObjectID(), primitive.NewObjectID()
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	mk := func(f, owner primitive.ObjectID, parent *primitive.ObjectID, content string) models.Comment {
		c, err := store.Create(ctx, models.Comment{ForumID: f, OwnerID: owner, ParentID: parent, Content: content})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return c
	}
	a := mk(forum, alice, nil, "a")
	b := mk(forum, bob, nil, "b")
	mk(forum, bob, &a.ID, "a.1")
	mk(forum, alice, &a.ID, "a.2")
	mk(other, alice, nil, "elsewhere")
	gone := fixtures.CreateComment(ctx, forum, bob, nil, "gone")
	if err := store.SoftDelete(ctx, gone.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	p := paging.Normalize(1, 20, 20)
	contents := func(cs []models.Comment) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Content
		}
		return out
	}

	tests := []struct {
		name string
		list func() ([]models.Comment, int64, error)
		want []string
	}{
		{"top level oldest first", func() ([]models.Comment, int64, error) { return store.ListByForum(ctx, forum, p) }, []string{"a", "b"}},
		{"replies oldest first", func() ([]models.Comment, int64, error) { return store.ListReplies(ctx, a.ID, p) }, []string{"a.1", "a.2"}},
		{"no replies", func() ([]models.Comment, int64, error) { return store.ListReplies(ctx, b.ID, p) }, []string{}},
		{"by owner newest first", func() ([]models.Comment, int64, error) { return store.ListByOwner(ctx, alice, p) }, []string{"elsewhere", "a.2", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, total, err := tt.list()
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			got := contents(cs)
			if total != int64(len(tt.want)) || len(got) != len(tt.want) {
				t.Fatalf("got %v (total %d), want %v", got, total, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStore_AdjustReactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := commentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateComment(ctx, primitive.NewObjectID(), primitive.NewObjectID(), nil, "react to me")

	if err := store.AdjustReactions(ctx, c.ID, 1, 0); err != nil {
		t.Fatalf("AdjustReactions failed: %v", err)
	}
	if err := store.AdjustReactions(ctx, c.ID, -2, -1); err != nil {
		t.Fatalf("AdjustReactions failed: %v", err)
	}
	got, _ := store.GetByID(ctx, c.ID)
	if got.LikeCount != 0 || got.DislikeCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", got.LikeCount, got.DislikeCount)
	}
}
