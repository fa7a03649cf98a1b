// internal/app/features/media/handler.go
package media

import (
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/blob"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxBytes is the upload limit when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// Handler serves uploads. Bytes go to Blobs; the media collection keeps
// the metadata.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Blobs    blob.Store
	MaxBytes int64
}

func NewHandler(db *mongo.Database, blobs blob.Store, maxBytes int64, logger *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Handler{
		DB:       db,
		Log:      logger,
		Blobs:    blobs,
		MaxBytes: maxBytes,
	}
}

var (
	errMediaNotFound = apperr.NotFound("media not found")
	errNoFile        = apperr.Validation("a file is required").WithField("file", "File is required.")
	errTooLarge      = apperr.Validation("file is too large").WithField("file", "File exceeds the upload limit.")
	errNoFiles       = apperr.Validation("at least one file is required").WithField("files", "Files are required.")
	errNoStorage     = apperr.Validation("uploads are not configured")
)
