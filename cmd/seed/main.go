// Command seed loads users, groups, forums and polls from a YAML file
// into the campusforum database.
//
//	seed -file seed.yaml [-mongo_uri mongodb://localhost:27017] [-db campusforum]
//
// Defaults come from CAMPUSFORUM_MONGO_URI and CAMPUSFORUM_MONGO_DATABASE,
// read from the environment or a .env file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/dalemusser/campusforum/internal/app/seed"
	"github.com/dalemusser/campusforum/internal/app/system/indexes"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	file := flag.String("file", "seed.yaml", "YAML seed file")
	uri := flag.String("mongo_uri", envOr("CAMPUSFORUM_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	dbName := flag.String("db", envOr("CAMPUSFORUM_MONGO_DATABASE", "campusforum"), "MongoDB database name")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(*file, *uri, *dbName, *timeout, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func run(file, uri, dbName string, timeout time.Duration, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fh, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fh.Close()
	doc, err := seed.Load(fh)
	if err != nil {
		return err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	db := client.Database(dbName)

	if err := indexes.EnsureAll(ctx, db); err != nil {
		return err
	}
	res, err := seed.Apply(ctx, db, doc, logger)
	if err != nil {
		return err
	}
	logger.Info("seed complete",
		zap.String("database", dbName),
		zap.Int("users_created", res.UsersCreated),
		zap.Int("users_reused", res.UsersReused),
		zap.Int("groups_created", res.GroupsCreated),
		zap.Int("groups_reused", res.GroupsReused),
		zap.Int("members", res.Members),
		zap.Int("forums", res.Forums),
		zap.Int("comments", res.Comments),
		zap.Int("polls", res.Polls))
	return nil
}
