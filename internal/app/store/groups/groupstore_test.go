package groupstore_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/campusforum/internal/app/membership"
	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/txn"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/campusforum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func strp(s string) *string { return &s }

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Group{
		Name:       "  Chess   Club ",
		CreatorID:  creator,
		Categories: []string{"Games", "games", " Strategy "},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Chess Club" || created.NameCI != "chess club" {
		t.Errorf("name = %q / %q", created.Name, created.NameCI)
	}
	if created.Visibility != models.VisibilityOpen {
		t.Errorf("Visibility = %q, want open", created.Visibility)
	}
	if len(created.Categories) != 2 {
		t.Errorf("Categories = %v, want deduped pair", created.Categories)
	}
	if created.MemberCount != 1 || len(created.Members) != 1 {
		t.Fatalf("members = %d / %v", created.MemberCount, created.Members)
	}
	if m := created.Members[0]; m.UserID != creator || m.Role != models.MemberRoleAdmin || m.Status != models.MemberStatusActive {
		t.Errorf("creator entry = %+v", m)
	}

	stored, err := store.GetActive(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if stored.Version != 1 {
		t.Errorf("Version = %d, want 1", stored.Version)
	}
}

func TestStore_Create_DuplicateNameCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Create(ctx, models.Group{Name: "Robotics", CreatorID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = store.Create(ctx, models.Group{Name: "ROBOTICS", CreatorID: primitive.NewObjectID()})
	if !errors.Is(err, groupstore.ErrDuplicateGroupName) {
		t.Fatalf("err = %v, want ErrDuplicateGroupName", err)
	}

	// The name frees up once the holder is soft-deleted.
	if err := store.SoftDelete(ctx, first.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Group{Name: "robotics", CreatorID: primitive.NewObjectID()}); err != nil {
		t.Errorf("Create after delete failed: %v", err)
	}
}

func TestStore_GetActive_SoftDeleted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Gone", models.VisibilityOpen, primitive.NewObjectID())
	if err := store.SoftDelete(ctx, g.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	if _, err := store.GetActive(ctx, g.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetActive err = %v, want ErrNoDocuments", err)
	}
	if got, err := store.GetByID(ctx, g.ID); err != nil || got.IsActive {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
	if err := store.SoftDelete(ctx, g.ID); err != mongo.ErrNoDocuments {
		t.Errorf("second SoftDelete err = %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g, _ := store.Create(ctx, models.Group{Name: "Film", CreatorID: primitive.NewObjectID()})
	if _, err := store.Create(ctx, models.Group{Name: "Music", CreatorID: primitive.NewObjectID()}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	cats := []string{"arts"}
	upd := groupstore.Update{
		Description: strp("Weekly screenings"),
		Visibility:  strp(models.VisibilityClosed),
		Categories:  &cats,
	}
	got, err := store.Update(ctx, g.ID, upd)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Description != "Weekly screenings" || got.Visibility != models.VisibilityClosed || len(got.Categories) != 1 {
		t.Errorf("updated = %+v", got)
	}
	if got.Name != "Film" {
		t.Error("unset fields must not change")
	}
	if got.Version != g.Version+1 {
		t.Errorf("Version = %d, want %d", got.Version, g.Version+1)
	}
	if len(got.Members) != 1 {
		t.Error("members must survive an info update")
	}
	if want := []string{"description", "visibility", "categories"}; len(upd.Fields()) != 3 || upd.Fields()[0] != want[0] {
		t.Errorf("Fields() = %v, want %v", upd.Fields(), want)
	}

	_, err = store.Update(ctx, g.ID, groupstore.Update{Name: strp("music")})
	if !errors.Is(err, groupstore.ErrDuplicateGroupName) {
		t.Errorf("rename to taken name err = %v", err)
	}
}

func TestStore_Mutate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	g := fixtures.CreateGroup(ctx, "Hikers", models.VisibilityOpen, creator)
	joiner := primitive.NewObjectID()

	out, err := store.Mutate(ctx, g.ID, func(g *models.Group) error {
		_, err := membership.Join(g, joiner, time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if out.MemberCount != 2 || out.Version != g.Version+1 {
		t.Errorf("out = count %d version %d", out.MemberCount, out.Version)
	}

	stored, _ := store.GetActive(ctx, g.ID)
	if stored.MemberCount != 2 || len(stored.Members) != 2 {
		t.Errorf("stored = count %d members %d", stored.MemberCount, len(stored.Members))
	}

	// Rejections from fn abort without writing.
	_, err = store.Mutate(ctx, g.ID, func(g *models.Group) error {
		_, err := membership.Join(g, joiner, time.Now().UTC())
		return err
	})
	if !errors.Is(err, membership.ErrAlreadyMember) {
		t.Errorf("second join err = %v", err)
	}
	again, _ := store.GetActive(ctx, g.ID)
	if again.Version != stored.Version {
		t.Error("rejected mutation must not bump the version")
	}

	if _, err := store.Mutate(ctx, primitive.NewObjectID(), func(*models.Group) error { return nil }); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing group err = %v", err)
	}
}

func TestStore_Mutate_RetriesStaleWrite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Racers", models.VisibilityOpen, primitive.NewObjectID())
	interloper := primitive.NewObjectID()
	mine := primitive.NewObjectID()

	calls := 0
	out, err := store.Mutate(ctx, g.ID, func(cp *models.Group) error {
		calls++
		if calls == 1 {
			// Another writer lands between our read and our write.
			if _, err := store.Mutate(ctx, g.ID, func(other *models.Group) error {
				_, err := membership.Join(other, interloper, time.Now().UTC())
				return err
			}); err != nil {
				t.Fatalf("interloper Mutate failed: %v", err)
			}
		}
		_, err := membership.Join(cp, mine, time.Now().UTC())
		return err
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
	if out.MemberCount != 3 || !membership.IsActiveMember(&out, interloper) || !membership.IsActiveMember(&out, mine) {
		t.Errorf("lost update: count %d members %+v", out.MemberCount, out.Members)
	}
}

func TestStore_Mutate_ExhaustsRetries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Busy", models.VisibilityOpen, primitive.NewObjectID())

	calls := 0
	_, err := store.Mutate(ctx, g.ID, func(*models.Group) error {
		calls++
		_, err := db.Collection("groups").UpdateByID(ctx, g.ID, bson.M{"$inc": bson.M{"version": 1}})
		return err
	})
	if !errors.Is(err, txn.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("kind = %v", apperr.KindOf(err))
	}
	if calls != txn.MaxAttempts {
		t.Errorf("fn called %d times, want %d", calls, txn.MaxAttempts)
	}
}

func TestStore_Mutate_ConcurrentJoinsAllLand(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fixtures.CreateGroup(ctx, "Crowd", models.VisibilityOpen, primitive.NewObjectID())

	// Each writer can lose at most once to every other writer, so
	// MaxAttempts concurrent writers always finish.
	n := txn.MaxAttempts
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := primitive.NewObjectID()
			_, err := store.Mutate(ctx, g.ID, func(g *models.Group) error {
				_, err := membership.Join(g, user, time.Now().UTC())
				return err
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent join failed: %v", err)
		}
	}

	final, _ := store.GetActive(ctx, g.ID)
	if final.MemberCount != n+1 || len(final.Members) != n+1 {
		t.Errorf("count %d members %d, want %d", final.MemberCount, len(final.Members), n+1)
	}
}

func TestStore_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := primitive.NewObjectID()
	mk := func(name, vis string, cats ...string) models.Group {
		g, err := store.Create(ctx, models.Group{Name: name, Visibility: vis, CreatorID: alice, Categories: cats, Description: name + " people"})
		if err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
		return g
	}
	mk("Chess Club", models.VisibilityOpen, "games")
	mk("Go Club", models.VisibilityClosed, "Games")
	mk("Secret Society", models.VisibilitySecret, "games")
	deleted := mk("Old Club", models.VisibilityOpen)
	if err := store.SoftDelete(ctx, deleted.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	tests := []struct {
		name      string
		filter    groupstore.Filter
		wantTotal int64
	}{
		{"public only", groupstore.Filter{}, 2},
		{"with secret", groupstore.Filter{IncludeSecret: true}, 3},
		{"search name", groupstore.Filter{Search: "CHESS"}, 1},
		{"search description", groupstore.Filter{Search: "club people"}, 2},
		{"search regex chars are literal", groupstore.Filter{Search: ".*"}, 0},
		{"category any case", groupstore.Filter{Category: "GAMES"}, 2},
		{"creator", groupstore.Filter{CreatorID: &alice, IncludeSecret: true}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, total, err := store.List(ctx, tt.filter, paging.Normalize(1, 20, 20))
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if total != tt.wantTotal || int64(len(groups)) != tt.wantTotal {
				t.Errorf("total %d len %d, want %d", total, len(groups), tt.wantTotal)
			}
			for _, g := range groups {
				if g.Members != nil {
					t.Error("list rows should not carry members")
				}
			}
		})
	}

	page2, total, err := store.List(ctx, groupstore.Filter{IncludeSecret: true}, paging.Normalize(2, 2, 20))
	if err != nil {
		t.Fatalf("List page 2 failed: %v", err)
	}
	if total != 3 || len(page2) != 1 || page2[0].Name != "Chess Club" {
		t.Errorf("page 2 = %d rows of %d, first %+v", len(page2), total, page2)
	}
}

func TestStore_ListByMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	user := primitive.NewObjectID()

	open := fixtures.CreateGroup(ctx, "Open", models.VisibilityOpen, owner)
	secret := fixtures.CreateGroup(ctx, "Hidden", models.VisibilitySecret, owner)
	closed := fixtures.CreateGroup(ctx, "Closed", models.VisibilityClosed, owner)
	fixtures.AddGroupMember(ctx, &open, user, models.MemberRoleMember, models.MemberStatusActive)
	fixtures.AddGroupMember(ctx, &secret, user, models.MemberRoleMember, models.MemberStatusActive)
	fixtures.AddGroupMember(ctx, &closed, user, models.MemberRoleMember, models.MemberStatusPending)

	tests := []struct {
		name          string
		includeSecret bool
		want          int64
	}{
		{"public view", false, 1},
		{"own view", true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, total, err := store.ListByMember(ctx, user, tt.includeSecret, paging.Normalize(1, 20, 20))
			if err != nil {
				t.Fatalf("ListByMember failed: %v", err)
			}
			if total != tt.want || int64(len(groups)) != tt.want {
				t.Errorf("got %d/%d, want %d", len(groups), total, tt.want)
			}
		})
	}
}
