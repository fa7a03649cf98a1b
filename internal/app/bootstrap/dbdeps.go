// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/campusforum/internal/app/system/blob"
	"github.com/dalemusser/campusforum/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Blobs is nil when no media endpoint is configured.
	Blobs blob.Store

	// LoginLimiter runs a cleanup goroutine; Shutdown stops it.
	LoginLimiter *ratelimit.LoginLimiter
}
