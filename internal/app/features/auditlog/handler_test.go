package auditlog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/campusforum/internal/app/features/auditlog"
	"github.com/dalemusser/campusforum/internal/app/store/audit"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/campusforum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type item struct {
	EventType string `json:"event_type"`
	ActorName string `json:"actor_name"`
	UserName  string `json:"user_name"`
	Success   bool   `json:"success"`
}

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := auditlog.Routes(auditlog.NewHandler(db, zap.NewNop()))
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fixtures.CreateAdmin(ctx, "root", "root@uni.edu")
	u := fixtures.CreateUser(ctx, "tam", "tam@uni.edu", models.RoleUser)
	g := fixtures.CreateGroup(ctx, "Robotics", models.VisibilityOpen, u.ID)

	store := audit.New(db)
	old := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &u.ID, ActorID: &u.ID, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, UserID: &u.ID, Success: false, CreatedAt: old},
		{Category: audit.CategoryGroup, EventType: audit.EventGroupCreated, GroupID: &g.ID, ActorID: &u.ID, Success: true},
		{Category: audit.CategoryMembership, EventType: audit.EventMemberBanned, GroupID: &g.ID, ActorID: &admin.ID, UserID: &u.ID, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	do := func(target string, as *models.User) *httptest.ResponseRecorder {
		req := testutil.NewRequest("GET", target)
		if as != nil {
			req = testutil.AsUser(req, *as)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("/", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d", rec.Code)
	}
	if rec := do("/", &u); rec.Code != http.StatusForbidden {
		t.Errorf("regular user = %d", rec.Code)
	}

	tests := []struct {
		name   string
		target string
		want   int
		first  string
	}{
		{"all", "/", 4, ""},
		{"auth category", "/?category=auth", 2, ""},
		{"failures only", "/?failures_only=true", 1, audit.EventLoginFailedWrongPassword},
		{"by group", "/?group=" + g.ID.Hex(), 2, ""},
		{"by actor", "/?actor=" + admin.ID.Hex(), 1, audit.EventMemberBanned},
		{"by date", "/?start_date=2025-01-10&end_date=2025-01-10", 1, audit.EventLoginFailedWrongPassword},
		{"by event type", "/?event_type=" + audit.EventGroupCreated, 1, audit.EventGroupCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.target, &admin)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var rows []item
			env := testutil.DecodeEnvelope(t, rec, &rows)
			if len(rows) != tt.want || env.Meta == nil || env.Meta.Total != int64(tt.want) {
				t.Fatalf("rows = %d, meta = %+v, want %d", len(rows), env.Meta, tt.want)
			}
			if tt.first != "" && rows[0].EventType != tt.first {
				t.Errorf("first = %q, want %q", rows[0].EventType, tt.first)
			}
		})
	}

	rec := do("/?event_type="+audit.EventMemberBanned, &admin)
	var banned []item
	testutil.DecodeEnvelope(t, rec, &banned)
	if len(banned) != 1 || banned[0].ActorName != "root" || banned[0].UserName != "tam" {
		t.Errorf("names = %+v", banned)
	}

	for _, bad := range []string{"/?start_date=yesterday", "/?group=nope", "/?start_date=2025-02-01&end_date=2025-01-01"} {
		if rec := do(bad, &admin); rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d", bad, rec.Code)
		}
	}
}

func TestServeFailedLogins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := auditlog.Routes(auditlog.NewHandler(db, zap.NewNop()))
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := fixtures.CreateAdmin(ctx, "root", "root@uni.edu")

	store := audit.New(db)
	id := primitive.NewObjectID()
	for _, e := range []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserNotFound},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedWrongPassword, UserID: &id, CreatedAt: time.Now().UTC().Add(-3 * time.Hour)},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &id, Success: true},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		target string
		status int
		want   int
	}{
		{"/failed-logins", http.StatusOK, 2},
		{"/failed-logins?window=1h", http.StatusOK, 1},
		{"/failed-logins?window=forever", http.StatusBadRequest, 0},
		{"/failed-logins?window=9999h", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testutil.AsUser(testutil.NewRequest("GET", tt.target), admin))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var rows []item
			testutil.DecodeEnvelope(t, rec, &rows)
			if len(rows) != tt.want {
				t.Errorf("rows = %d, want %d", len(rows), tt.want)
			}
		})
	}
}
