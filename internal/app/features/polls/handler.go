// internal/app/features/polls/handler.go
package polls

import (
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves polls, voting and results.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

var (
	errPollNotFound = apperr.NotFound("poll not found")
	errNoChanges    = apperr.Validation("no updatable fields supplied")
)

// notFound maps a missing poll document to errPollNotFound.
func notFound(err error) error {
	if err == mongo.ErrNoDocuments {
		return errPollNotFound
	}
	return err
}
