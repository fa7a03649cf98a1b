// Package counters adjusts denormalized counters (comment_count,
// like_count, ...) without ever storing a negative value.
package counters

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Adjust adds each delta to its field on the documents matching filter,
// clamping at zero, and stamps updated_at. It reports whether a document
// matched.
func Adjust(ctx context.Context, c *mongo.Collection, filter bson.M, deltas map[string]int) (bool, error) {
	if len(deltas) == 0 {
		return false, nil
	}
	fields := make([]string, 0, len(deltas))
	for f := range deltas {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	for _, f := range fields {
		set = append(set, bson.E{Key: f, Value: bson.M{
			"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + f, 0}}, deltas[f]}}},
		}})
	}
	res, err := c.UpdateOne(ctx, filter, mongo.Pipeline{{{Key: "$set", Value: set}}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
