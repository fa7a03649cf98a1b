// internal/app/features/users/handler.go
package users

import (
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/auditlog"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves profiles and each user's content listings.
type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	Audit *auditlog.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Log:   logger,
		Audit: audit,
	}
}

// profile is what other users see. Email and last login stay private.
type profile struct {
	ID         primitive.ObjectID `json:"id"`
	Username   string             `json:"username"`
	University string             `json:"university,omitempty"`
	Gender     string             `json:"gender,omitempty"`
	AvatarURL  string             `json:"avatar_url,omitempty"`
	Role       string             `json:"role"`
	CreatedAt  time.Time          `json:"created_at"`
}

func publicProfile(u models.User) profile {
	return profile{
		ID:         u.ID,
		Username:   u.Username,
		University: u.University,
		Gender:     u.Gender,
		AvatarURL:  u.AvatarURL,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}
