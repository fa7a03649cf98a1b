// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/campusforum/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("groups", groupsSchema())
	ensure("forums", forumsSchema())
	ensure("comments", commentsSchema())
	ensure("polls", pollsSchema())
	ensure("media", mediaSchema())
	ensure("reactions", reactionsSchema())

	// Append-only; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	counter  = bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0}
)

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "username", "username_ci", "password_hash", "role", "is_active"},
			"properties": bson.M{
				"email":         nonBlank,
				"username":      nonBlank,
				"username_ci":   nonBlank,
				"password_hash": nonBlank,
				"role":          bson.M{"enum": bson.A{models.RoleUser, models.RoleModerator, models.RoleAdmin}},
				"is_active":     bson.M{"bsonType": "bool"},
				"last_login_at": bson.M{"bsonType": bson.A{"date", "null"}},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "visibility", "creator_id", "members", "member_count", "version"},
			"properties": bson.M{
				"name":         nonBlank,
				"name_ci":      nonBlank,
				"visibility":   bson.M{"enum": bson.A{models.VisibilityOpen, models.VisibilityClosed, models.VisibilitySecret}},
				"creator_id":   bson.M{"bsonType": "objectId"},
				"categories":   bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "string"}},
				"member_count": counter,
				"version":      bson.M{"bsonType": bson.A{"int", "long"}},
				"members": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"user_id", "role", "status"},
						"properties": bson.M{
							"user_id":   bson.M{"bsonType": "objectId"},
							"role":      bson.M{"enum": bson.A{models.MemberRoleMember, models.MemberRoleModerator, models.MemberRoleAdmin}},
							"status":    bson.M{"enum": bson.A{models.MemberStatusActive, models.MemberStatusPending, models.MemberStatusBanned}},
							"joined_at": bson.M{"bsonType": "date"},
						},
					},
				},
			},
		},
	}
}

func forumsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "title_ci", "owner_id", "comment_count", "like_count", "dislike_count"},
			"properties": bson.M{
				"title":         nonBlank,
				"title_ci":      nonBlank,
				"owner_id":      bson.M{"bsonType": "objectId"},
				"photo_urls":    bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "string"}},
				"comment_count": counter,
				"like_count":    counter,
				"dislike_count": counter,
			},
		},
	}
}

func commentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"forum_id", "owner_id", "content", "like_count", "dislike_count"},
			"properties": bson.M{
				"forum_id":      bson.M{"bsonType": "objectId"},
				"owner_id":      bson.M{"bsonType": "objectId"},
				"parent_id":     bson.M{"bsonType": bson.A{"objectId", "null"}},
				"content":       nonBlank,
				"like_count":    counter,
				"dislike_count": counter,
			},
		},
	}
}

func pollsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "owner_id", "options", "version"},
			"properties": bson.M{
				"title":    nonBlank,
				"owner_id": bson.M{"bsonType": "objectId"},
				"ends_at":  bson.M{"bsonType": bson.A{"date", "null"}},
				"version":  bson.M{"bsonType": bson.A{"int", "long"}},
				"options": bson.M{
					"bsonType": "array",
					"minItems": 2,
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"id", "text", "votes"},
						"properties": bson.M{
							"id":    nonBlank,
							"text":  nonBlank,
							"votes": counter,
						},
					},
				},
			},
		},
	}
}

func mediaSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"file_name", "content_type", "size", "url", "storage_key", "uploader_id"},
			"properties": bson.M{
				"file_name":    nonBlank,
				"content_type": nonBlank,
				"size":         counter,
				"url":          nonBlank,
				"storage_key":  nonBlank,
				"uploader_id":  bson.M{"bsonType": "objectId"},
				"related_type": bson.M{"enum": bson.A{"forum", "comment", "user", "group", "poll"}},
				"related_id":   bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func reactionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "target_type", "target_id", "type"},
			"properties": bson.M{
				"user_id":     bson.M{"bsonType": "objectId"},
				"target_type": bson.M{"enum": bson.A{models.TargetForum, models.TargetComment}},
				"target_id":   bson.M{"bsonType": "objectId"},
				"type":        bson.M{"enum": bson.A{models.ReactionLike, models.ReactionDislike}},
			},
		},
	}
}
