// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CAMPUSFORUM_*), config
// files, or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// still owns ports, TLS, log level, CORS and body limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer tokens
	JWTSecret string        // HS256 signing key, at least auth.MinSecretLen chars
	JWTTTL    time.Duration // lifetime of issued tokens

	// Media blob storage (MinIO or any S3-compatible endpoint).
	// A blank endpoint disables uploads.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPublicURL string // optional; defaults to <endpoint>/<bucket>
	MediaMaxBytes  int64

	// Login throttling per client IP and per email
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// ExposeResetToken returns password reset tokens in the API response.
	ExposeResetToken bool

	// Audit logging destinations: all, db, log, off
	AuditLogAuth       string
	AuditLogMembership string

	// Store call deadlines
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// AdminEmail is promoted to site admin on startup when that user exists.
	AdminEmail string
}
