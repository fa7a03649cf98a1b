// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/store/audit"
	"github.com/dalemusser/campusforum/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth covers registration, login, password, and account deletion events.
	Auth string
	// Membership covers group lifecycle and every membership transition.
	Membership string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
// A nil *Logger is a valid no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) destination(category string) string {
	var d string
	switch category {
	case audit.CategoryAuth:
		d = l.config.Auth
	case audit.CategoryGroup, audit.CategoryMembership:
		d = l.config.Membership
	}
	if d == "" {
		return DestAll
	}
	return d
}

// Log records an event according to the destination configured for its
// category. Storage failures are logged, never returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	dest := l.destination(event.Category)
	if dest == DestOff {
		return
	}
	if dest == DestAll || dest == DestLog {
		l.logToZap(event)
	}
	if dest == DestAll || dest == DestDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func authEvent(r *http.Request, eventType string, userID *primitive.ObjectID, success bool, reason string, details map[string]string) audit.Event {
	return audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       success,
		FailureReason: reason,
		Details:       details,
	}
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventUserRegistered, &userID, true, "", map[string]string{"email": email}))
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginSuccess, &userID, true, "", map[string]string{"email": email}))
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedUserNotFound, nil, false, "user not found", map[string]string{"attempted_email": email}))
}

// LoginFailedWrongPassword logs a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedWrongPassword, &userID, false, "wrong password", map[string]string{"email": email}))
}

// LoginFailedUserDisabled logs a login to a deleted account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedUserDisabled, &userID, false, "user disabled", map[string]string{"email": email}))
}

// LoginFailedRateLimit logs a throttled login.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	l.Log(ctx, authEvent(r, audit.EventLoginFailedRateLimit, nil, false, "rate limit exceeded", map[string]string{
		"attempted_email": email,
		"limit_type":      limitType,
	}))
}

// PasswordChanged logs a password change.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordChanged, &userID, true, "", nil))
}

// PasswordResetRequested logs an issued reset token.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, authEvent(r, audit.EventPasswordResetRequested, &userID, true, "", map[string]string{"email": email}))
}

// PasswordReset logs a password set through a reset token.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordReset, &userID, true, "", nil))
}

// UserDeleted logs an account soft delete.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID) {
	e := authEvent(r, audit.EventUserDeleted, &userID, true, "", nil)
	e.ActorID = &actorID
	l.Log(ctx, e)
}

// --- Group Events ---

func (l *Logger) groupEvent(ctx context.Context, r *http.Request, eventType string, actorID, groupID primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryGroup,
		EventType: eventType,
		GroupID:   &groupID,
		ActorID:   &actorID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}

// GroupCreated logs a new group.
func (l *Logger) GroupCreated(ctx context.Context, r *http.Request, actorID, groupID primitive.ObjectID, name string) {
	l.groupEvent(ctx, r, audit.EventGroupCreated, actorID, groupID, map[string]string{"name": name})
}

// GroupUpdated logs a group edit with the changed field names.
func (l *Logger) GroupUpdated(ctx context.Context, r *http.Request, actorID, groupID primitive.ObjectID, fieldsChanged string) {
	l.groupEvent(ctx, r, audit.EventGroupUpdated, actorID, groupID, map[string]string{"fields_changed": fieldsChanged})
}

// GroupDeleted logs a group soft delete.
func (l *Logger) GroupDeleted(ctx context.Context, r *http.Request, actorID, groupID primitive.ObjectID, name string) {
	l.groupEvent(ctx, r, audit.EventGroupDeleted, actorID, groupID, map[string]string{"name": name})
}

// --- Membership Events ---

// MemberChange logs one membership transition. actorID and userID are the
// same for self-service transitions (join, leave).
func (l *Logger) MemberChange(ctx context.Context, r *http.Request, eventType string, groupID, actorID, userID primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryMembership,
		EventType: eventType,
		GroupID:   &groupID,
		ActorID:   &actorID,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   details,
	})
}
