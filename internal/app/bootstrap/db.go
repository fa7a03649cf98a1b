// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/campusforum/internal/app/system/blob"
	"github.com/dalemusser/campusforum/internal/app/system/indexes"
	"github.com/dalemusser/campusforum/internal/app/system/ratelimit"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and, when configured, the media
// bucket. The bucket is created if it does not exist yet.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		LoginLimiter:  ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow),
	}

	if appCfg.MinioEndpoint == "" {
		logger.Warn("minio_endpoint not set; media uploads are disabled")
		return deps, nil
	}
	blobs, err := blob.NewMinio(ctx, blob.MinioConfig{
		Endpoint:  appCfg.MinioEndpoint,
		AccessKey: appCfg.MinioAccessKey,
		SecretKey: appCfg.MinioSecretKey,
		Bucket:    appCfg.MinioBucket,
		Region:    appCfg.MinioRegion,
		UseSSL:    appCfg.MinioUseSSL,
		PublicURL: appCfg.MinioPublicURL,
	})
	if err != nil {
		deps.LoginLimiter.Close()
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}
	logger.Info("media bucket ready",
		zap.String("endpoint", appCfg.MinioEndpoint),
		zap.String("bucket", appCfg.MinioBucket))
	deps.Blobs = blobs
	return deps, nil
}

// EnsureSchema creates collections with their JSON-Schema validators, then
// the indexes every store relies on, including the unique ones that back
// duplicate-name and duplicate-reaction checks.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("collection validator setup failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}
