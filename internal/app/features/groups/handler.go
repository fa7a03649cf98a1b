// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/policy/grouppolicy"
	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/auditlog"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature:
// group CRUD, the membership transitions, member listing and the
// per-group activity feed.
type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	Audit *auditlog.Logger
}

// NewHandler constructs a groups Handler. It is called once from
// BuildHandler.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Log:   logger,
		Audit: audit,
	}
}

var (
	errGroupNotFound = apperr.NotFound("group not found")
	errNoChanges     = apperr.Validation("no updatable fields supplied")
)

// loadGroup resolves {id} to an active group the caller may see. Secret
// groups are reported as missing to outsiders.
func (h *Handler) loadGroup(ctx context.Context, r *http.Request) (models.Group, error) {
	id, err := urlparam.ObjectID(r, "id", "group")
	if err != nil {
		return models.Group{}, err
	}
	g, err := groupstore.New(h.DB).GetActive(ctx, id)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, errGroupNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	if !grouppolicy.CanView(r, &g) {
		return models.Group{}, errGroupNotFound
	}
	return g, nil
}
