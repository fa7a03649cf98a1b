package seed_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/campusforum/internal/app/membership"
	"github.com/dalemusser/campusforum/internal/app/seed"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/campusforum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const doc = `
users:
  - {email: ada@uni.edu, username: ada, password: correct-horse, role: admin}
  - {email: bo@uni.edu, username: bo, password: correct-horse, university: Ege}
  - {email: cy@uni.edu, username: cy, password: correct-horse}
  - {email: dee@uni.edu, username: dee, password: correct-horse}
groups:
  - name: Chess Club
    visibility: closed
    categories: [games, strategy]
    creator: ada
    members:
      - {user: bo, role: moderator}
      - {user: cy}
      - {user: dee, status: pending}
forums:
  - title: Openings
    owner: bo
    comments:
      - author: cy
        content: Sicilian all day
        replies:
          - {author: ada, content: Agreed}
polls:
  - title: Meeting night
    owner: ada
    options: [Tue, Thu, "  "]
`

func TestLoad(t *testing.T) {
	f, err := seed.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(f.Users) != 4 || len(f.Groups) != 1 || len(f.Groups[0].Members) != 3 || len(f.Forums[0].Comments[0].Replies) != 1 {
		t.Errorf("parsed = %+v", f)
	}

	if _, err := seed.Load(strings.NewReader("users:\n  - {emial: typo@uni.edu}\n")); err == nil {
		t.Error("unknown field accepted")
	}
	if f, err := seed.Load(strings.NewReader("")); err != nil || len(f.Users) != 0 {
		t.Errorf("empty doc: %+v, %v", f, err)
	}
}

func TestApply(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// dee already registered; the seed must reuse the account.
	dee := fixtures.CreateUser(ctx, "dee", "dee@uni.edu", models.RoleUser)

	f, err := seed.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	res, err := seed.Apply(ctx, db, f, zap.NewNop())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := seed.Result{UsersCreated: 3, UsersReused: 1, GroupsCreated: 1, Members: 3, Forums: 1, Comments: 2, Polls: 1}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}

	var g models.Group
	if err := db.Collection("groups").FindOne(ctx, bson.M{"name": "Chess Club"}).Decode(&g); err != nil {
		t.Fatal(err)
	}
	if g.MemberCount != 3 {
		t.Errorf("member_count = %d, want 3", g.MemberCount)
	}
	if got := membership.StatusOf(&g, dee.ID); got != models.MemberStatusPending {
		t.Errorf("dee status = %q", got)
	}

	var fm models.Forum
	if err := db.Collection("forums").FindOne(ctx, bson.M{"title": "Openings"}).Decode(&fm); err != nil {
		t.Fatal(err)
	}
	if fm.CommentCount != 2 {
		t.Errorf("comment_count = %d", fm.CommentCount)
	}
	if n, _ := db.Collection("comments").CountDocuments(ctx, bson.M{"parent_id": bson.M{"$exists": true}}); n != 1 {
		t.Errorf("replies = %d", n)
	}

	// Second run reuses users and the group without changing membership.
	res, err = seed.Apply(ctx, db, f, zap.NewNop())
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if res.UsersCreated != 0 || res.UsersReused != 4 || res.GroupsReused != 1 {
		t.Errorf("second result = %+v", res)
	}
	if err := db.Collection("groups").FindOne(ctx, bson.M{"_id": g.ID}).Decode(&g); err != nil {
		t.Fatal(err)
	}
	if g.MemberCount != 3 {
		t.Errorf("member_count after rerun = %d", g.MemberCount)
	}
}

func TestApplyUnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := seed.File{Forums: []seed.Forum{{Title: "Orphan", Owner: "nobody"}}}
	if _, err := seed.Apply(ctx, db, f, zap.NewNop()); err == nil || !strings.Contains(err.Error(), "nobody") {
		t.Errorf("err = %v", err)
	}
}
