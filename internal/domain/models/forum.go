package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Forum is a discussion thread opened by a user.
type Forum struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	Title        string             `bson:"title" json:"title"`
	TitleCI      string             `bson:"title_ci" json:"-"`
	Description  string             `bson:"description" json:"description"`
	OwnerID      primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	University   string             `bson:"university,omitempty" json:"university,omitempty"`
	Category     string             `bson:"category,omitempty" json:"category,omitempty"`
	PhotoURLs    []string           `bson:"photo_urls" json:"photo_urls"`
	CommentCount int                `bson:"comment_count" json:"comment_count"`
	LikeCount    int                `bson:"like_count" json:"like_count"`
	DislikeCount int                `bson:"dislike_count" json:"dislike_count"`

	IsActive  bool      `bson:"is_active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
