package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/auditlog"
	"github.com/dalemusser/campusforum/internal/app/system/ratelimit"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/campusforum/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func roleOf(t *testing.T, deps DBDeps, email string) string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var u models.User
	if err := deps.MongoDatabase.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		t.Fatalf("find %s: %v", email, err)
	}
	return u.Role
}

func TestEnsureSiteAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	deps := DBDeps{MongoDatabase: db}

	fixtures.CreateUser(ctx, "una", "una@uni.edu", models.RoleUser)
	fixtures.CreateAdmin(ctx, "vic", "vic@uni.edu")
	fixtures.CreateDisabledUser(ctx, "wes", "wes@uni.edu")

	tests := []struct {
		name     string
		email    string
		wantRole string
	}{
		{"promotes existing user", "UNA@uni.edu", models.RoleAdmin},
		{"already admin", "vic@uni.edu", models.RoleAdmin},
		{"disabled account untouched", "wes@uni.edu", models.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ensureSiteAdmin(ctx, deps, tt.email, testLogger()); err != nil {
				t.Fatalf("ensureSiteAdmin: %v", err)
			}
			if got := roleOf(t, deps, strings.ToLower(tt.email)); got != tt.wantRole {
				t.Errorf("role = %q, want %q", got, tt.wantRole)
			}
		})
	}

	if err := ensureSiteAdmin(ctx, deps, "", testLogger()); err != nil {
		t.Errorf("blank email: %v", err)
	}
	if err := ensureSiteAdmin(ctx, deps, "ghost@uni.edu", testLogger()); err != nil {
		t.Errorf("unknown email: %v", err)
	}
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:           "mongodb://localhost:27017",
		MongoDatabase:      "campusforum_test",
		JWTSecret:          strings.Repeat("k", 32),
		JWTTTL:             time.Hour,
		MinioBucket:        "media",
		MediaMaxBytes:      1 << 20,
		LoginRateLimit:     5,
		LoginRateWindow:    time.Minute,
		AuditLogAuth:       auditlog.DestAll,
		AuditLogMembership: auditlog.DestDB,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"bad mongo uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, true},
		{"short jwt secret", func(c *AppConfig) { c.JWTSecret = "short" }, true},
		{"endpoint without bucket", func(c *AppConfig) { c.MinioEndpoint = "minio:9000"; c.MinioBucket = "" }, true},
		{"unknown audit destination", func(c *AppConfig) { c.AuditLogMembership = "syslog" }, true},
		{"zero rate limit", func(c *AppConfig) { c.LoginRateLimit = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := validConfig()
	deps := DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		LoginLimiter:  ratelimit.NewLoginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow),
	}
	t.Cleanup(deps.LoginLimiter.Close)

	h, err := BuildHandler(&config.CoreConfig{}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	tests := []struct {
		method string
		target string
		want   int
	}{
		{"GET", "/groups", http.StatusOK},
		{"GET", "/forums", http.StatusOK},
		{"GET", "/polls", http.StatusOK},
		{"GET", "/users/me", http.StatusUnauthorized},
		{"POST", "/media", http.StatusUnauthorized},
		{"GET", "/audit", http.StatusUnauthorized},
		{"GET", "/nowhere", http.StatusNotFound},
		{"PATCH", "/groups", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Errorf("content type = %q", ct)
			}
		})
	}
}

func TestBuildHandler_RequiresLoginLimiter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	if _, err := BuildHandler(&config.CoreConfig{}, validConfig(), deps, testLogger()); err == nil {
		t.Fatal("BuildHandler accepted deps without a login limiter")
	}
}

func TestShutdown_ClosesLoginLimiter(t *testing.T) {
	cfg := validConfig()
	deps := DBDeps{LoginLimiter: ratelimit.NewLoginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := Shutdown(ctx, &config.CoreConfig{}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	// Closing twice must be safe; the limiter was already stopped above.
	deps.LoginLimiter.Close()
}
