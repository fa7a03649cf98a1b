// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/auditlog"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for campusforum.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: CAMPUSFORUM_MONGO_URI, CAMPUSFORUM_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "campusforum", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: "", Desc: "HS256 signing key for bearer tokens (32+ chars)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Bearer token lifetime (e.g., 24h, 90m)"},

	// Media storage
	{Name: "minio_endpoint", Default: "", Desc: "MinIO/S3 endpoint host:port; blank disables uploads"},
	{Name: "minio_access_key", Default: "", Desc: "MinIO/S3 access key"},
	{Name: "minio_secret_key", Default: "", Desc: "MinIO/S3 secret key"},
	{Name: "minio_bucket", Default: "campusforum-media", Desc: "Bucket for uploaded media"},
	{Name: "minio_region", Default: "", Desc: "Bucket region"},
	{Name: "minio_use_ssl", Default: false, Desc: "Use HTTPS to reach the endpoint"},
	{Name: "minio_public_url", Default: "", Desc: "Public URL prefix for objects (default <endpoint>/<bucket>)"},
	{Name: "media_max_bytes", Default: 10 << 20, Desc: "Largest accepted upload in bytes"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per IP and per email within the window"},
	{Name: "login_rate_window", Default: "15m", Desc: "Login rate limit window"},
	{Name: "expose_reset_token", Default: false, Desc: "Return password reset tokens in the forgot-password response (development only)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_membership", Default: "all", Desc: "Group/membership event logging: 'all', 'db', 'log', or 'off'"},

	// Store deadlines
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and transactions"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for uploads and audit scans"},

	{Name: "admin_email", Default: "", Desc: "Email of an existing user to promote to site admin on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CAMPUSFORUM_* for app) and
// flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CAMPUSFORUM", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", auth.DefaultTTL),

		MinioEndpoint:  appValues.String("minio_endpoint"),
		MinioAccessKey: appValues.String("minio_access_key"),
		MinioSecretKey: appValues.String("minio_secret_key"),
		MinioBucket:    appValues.String("minio_bucket"),
		MinioRegion:    appValues.String("minio_region"),
		MinioUseSSL:    appValues.Bool("minio_use_ssl"),
		MinioPublicURL: appValues.String("minio_public_url"),
		MediaMaxBytes:  int64(appValues.Int("media_max_bytes")),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", 15*time.Minute),

		ExposeResetToken: appValues.Bool("expose_reset_token"),

		AuditLogAuth:       strings.ToLower(appValues.String("audit_log_auth")),
		AuditLogMembership: strings.ToLower(appValues.String("audit_log_membership")),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),

		AdminEmail: strings.TrimSpace(appValues.String("admin_email")),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The Mongo URI and JWT secret are checked here so a bad deployment
// fails before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.JWTSecret) < auth.MinSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d characters", auth.MinSecretLen)
	}
	if appCfg.MinioEndpoint != "" && appCfg.MinioBucket == "" {
		return fmt.Errorf("minio_bucket is required when minio_endpoint is set")
	}
	for key, dest := range map[string]string{
		"audit_log_auth":       appCfg.AuditLogAuth,
		"audit_log_membership": appCfg.AuditLogMembership,
	} {
		switch dest {
		case auditlog.DestAll, auditlog.DestDB, auditlog.DestLog, auditlog.DestOff:
		default:
			return fmt.Errorf("%s: unknown destination %q", key, dest)
		}
	}
	if appCfg.LoginRateLimit <= 0 {
		return fmt.Errorf("login_rate_limit must be positive")
	}
	return nil
}
