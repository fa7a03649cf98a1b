package accounts_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/campusforum/internal/app/features/accounts"
	"github.com/dalemusser/campusforum/internal/app/store/audit"
	"github.com/dalemusser/campusforum/internal/app/system/auditlog"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/ratelimit"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/dalemusser/campusforum/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type env struct {
	router   http.Handler
	db       *mongo.Database
	fixtures *testutil.Fixtures
	tokens   *auth.TokenManager
	handler  *accounts.Handler
}

func newEnv(t *testing.T, loginLimit int) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter(loginLimit, time.Minute)
	t.Cleanup(limiter.Close)

	al := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.DestDB})
	h := accounts.NewHandler(db, tokens, limiter, al, logger)
	return &env{
		router:   tokens.LoadTokenUser(accounts.Routes(h)),
		db:       db,
		fixtures: testutil.NewFixtures(t, db),
		tokens:   tokens,
		handler:  h,
	}
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func auditCount(t *testing.T, db *mongo.Database, eventType string) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": eventType})
	if err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	return n
}

type tokenData struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func TestRegister(t *testing.T) {
	e := newEnv(t, 10)

	body := map[string]string{
		"email":    "New.Student@Uni.edu",
		"username": "newstudent",
		"password": "long-enough-pw",
	}
	rec := e.do(testutil.JSONRequest(t, "POST", "/register", body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var data tokenData
	testutil.DecodeEnvelope(t, rec, &data)
	if data.Token == "" || data.User.Email != "new.student@uni.edu" || data.User.Role != models.RoleUser {
		t.Errorf("data = %+v", data)
	}
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Error("response must not expose the password hash")
	}
	if u, err := e.tokens.Parse(data.Token); err != nil || u.ID != data.User.ID {
		t.Errorf("token parse = %+v, %v", u, err)
	}
	if n := auditCount(t, e.db, audit.EventUserRegistered); n != 1 {
		t.Errorf("registered events = %d, want 1", n)
	}

	// Same email again, different case.
	body["username"] = "someoneelse"
	body["email"] = "new.student@UNI.edu"
	rec = e.do(testutil.JSONRequest(t, "POST", "/register", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate email status = %d", rec.Code)
	}
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t, 10)

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"bad json", "{", ""},
		{"missing email", map[string]string{"username": "abc", "password": "long-enough-pw"}, "email"},
		{"bad email", map[string]string{"email": "nope", "username": "abc", "password": "long-enough-pw"}, "email"},
		{"short username", map[string]string{"email": "a@b.edu", "username": "ab", "password": "long-enough-pw"}, "username"},
		{"weak password", map[string]string{"email": "a@b.edu", "username": "abc", "password": "short"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.JSONRequest(t, "POST", "/register", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			env := testutil.DecodeEnvelope(t, rec, nil)
			if tt.wantField != "" && env.Errors[tt.wantField] == "" {
				t.Errorf("expected error on %q, got %v", tt.wantField, env.Errors)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "alice", "alice@uni.edu", models.RoleUser)
	gone := e.fixtures.CreateDisabledUser(ctx, "gone", "gone@uni.edu")

	tests := []struct {
		name      string
		email     string
		password  string
		wantCode  int
		wantEvent string
	}{
		{"success", "ALICE@uni.edu", testutil.TestPassword, http.StatusOK, audit.EventLoginSuccess},
		{"wrong password", u.Email, "not-the-password", http.StatusUnauthorized, audit.EventLoginFailedWrongPassword},
		{"unknown email", "nobody@uni.edu", testutil.TestPassword, http.StatusUnauthorized, audit.EventLoginFailedUserNotFound},
		{"disabled", gone.Email, testutil.TestPassword, http.StatusUnauthorized, audit.EventLoginFailedUserDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.JSONRequest(t, "POST", "/login", map[string]string{"email": tt.email, "password": tt.password}))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if n := auditCount(t, e.db, tt.wantEvent); n != 1 {
				t.Errorf("%s events = %d, want 1", tt.wantEvent, n)
			}
		})
	}

	var stored models.User
	if err := e.db.Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&stored); err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Error("last_login_at should be stamped")
	}
}

func TestLogin_RateLimited(t *testing.T) {
	e := newEnv(t, 4)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fixtures.CreateUser(ctx, "bob", "bob@uni.edu", models.RoleUser)

	// Four per IP allows two per email.
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = e.do(testutil.JSONRequest(t, "POST", "/login", map[string]string{"email": u.Email, "password": "wrong-password"}))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if n := auditCount(t, e.db, audit.EventLoginFailedRateLimit); n != 1 {
		t.Errorf("rate limit events = %d, want 1", n)
	}
}

func TestRefreshAndPassword(t *testing.T) {
	e := newEnv(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fixtures.CreateUser(ctx, "carol", "carol@uni.edu", models.RoleUser)

	tok, _, err := e.tokens.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	bearer := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+tok)
		return req
	}

	if rec := e.do(testutil.JSONRequest(t, "POST", "/refresh", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh without token status = %d", rec.Code)
	}
	rec := e.do(bearer(testutil.JSONRequest(t, "POST", "/refresh", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = e.do(bearer(testutil.JSONRequest(t, "PUT", "/password", map[string]string{
		"current_password": "wrong-password",
		"new_password":     "brand-new-password",
	})))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong current password status = %d", rec.Code)
	}

	rec = e.do(bearer(testutil.JSONRequest(t, "PUT", "/password", map[string]string{
		"current_password": testutil.TestPassword,
		"new_password":     "brand-new-password",
	})))
	if rec.Code != http.StatusOK {
		t.Fatalf("change password status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if n := auditCount(t, e.db, audit.EventPasswordChanged); n != 1 {
		t.Errorf("password events = %d, want 1", n)
	}

	rec = e.do(testutil.JSONRequest(t, "POST", "/login", map[string]string{"email": u.Email, "password": "brand-new-password"}))
	if rec.Code != http.StatusOK {
		t.Errorf("login with new password status = %d", rec.Code)
	}
}

type forgotData struct {
	Token string `json:"reset_token"`
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t, 10)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := e.fixtures.CreateUser(ctx, "dana", "dana@uni.edu", models.RoleUser)

	// Hidden by default: same answer, no token.
	rec := e.do(testutil.JSONRequest(t, "POST", "/forgot-password", map[string]string{"email": u.Email}))
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "reset_token") {
		t.Error("reset token must not be returned unless exposed")
	}
	if n := auditCount(t, e.db, audit.EventPasswordResetRequested); n != 1 {
		t.Errorf("reset requested events = %d, want 1", n)
	}

	// Unknown email answers exactly like a known one.
	unknown := e.do(testutil.JSONRequest(t, "POST", "/forgot-password", map[string]string{"email": "nobody@uni.edu"}))
	if unknown.Code != http.StatusOK || unknown.Body.String() != rec.Body.String() {
		t.Errorf("unknown email answer = %d %s", unknown.Code, unknown.Body.String())
	}

	e.handler.ExposeResetToken = true
	rec = e.do(testutil.JSONRequest(t, "POST", "/forgot-password", map[string]string{"email": "DANA@uni.edu"}))
	var data forgotData
	testutil.DecodeEnvelope(t, rec, &data)
	if data.Token == "" {
		t.Fatalf("exposed forgot response has no token: %s", rec.Body.String())
	}
	if _, err := e.tokens.Parse(data.Token); err == nil {
		t.Error("reset token must not work as an access token")
	}

	reset := func(token, pw string) *httptest.ResponseRecorder {
		return e.do(testutil.JSONRequest(t, "POST", "/reset-password", map[string]string{"token": token, "new_password": pw}))
	}
	if rec := reset(data.Token, "short"); rec.Code != http.StatusBadRequest {
		t.Errorf("weak password status = %d", rec.Code)
	}
	if rec := reset("not.a.token", "fresh-password-1"); rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d", rec.Code)
	}
	access, _, _ := e.tokens.Issue(u)
	if rec := reset(access, "fresh-password-1"); rec.Code != http.StatusUnauthorized {
		t.Errorf("access token as reset token status = %d", rec.Code)
	}

	if rec := reset(data.Token, "fresh-password-1"); rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if n := auditCount(t, e.db, audit.EventPasswordReset); n != 1 {
		t.Errorf("reset events = %d, want 1", n)
	}
	if rec := reset(data.Token, "fresh-password-2"); rec.Code != http.StatusUnauthorized {
		t.Errorf("reused token status = %d, want 401", rec.Code)
	}

	rec = e.do(testutil.JSONRequest(t, "POST", "/login", map[string]string{"email": u.Email, "password": "fresh-password-1"}))
	if rec.Code != http.StatusOK {
		t.Errorf("login with reset password status = %d", rec.Code)
	}
}

func TestForgotPassword_DisabledAccount(t *testing.T) {
	e := newEnv(t, 10)
	e.handler.ExposeResetToken = true
	ctx, cancel := testutil.TestContext()
	defer cancel()
	gone := e.fixtures.CreateDisabledUser(ctx, "gone", "gone@uni.edu")

	rec := e.do(testutil.JSONRequest(t, "POST", "/forgot-password", map[string]string{"email": gone.Email}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var data forgotData
	testutil.DecodeEnvelope(t, rec, &data)
	if data.Token != "" {
		t.Error("disabled accounts must not get a reset token")
	}

	// A token issued before the account was disabled is refused.
	tok, _, err := e.tokens.IssueReset(gone)
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}
	rec = e.do(testutil.JSONRequest(t, "POST", "/reset-password", map[string]string{"token": tok, "new_password": "fresh-password-1"}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("disabled reset status = %d, want 401", rec.Code)
	}
}
