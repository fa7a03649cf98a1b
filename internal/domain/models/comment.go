package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment belongs to a forum. ParentID is set for replies and always
// points at a comment in the same forum.
type Comment struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	ForumID      primitive.ObjectID  `bson:"forum_id" json:"forum_id"`
	OwnerID      primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	ParentID     *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Content      string              `bson:"content" json:"content"`
	PhotoURLs    []string            `bson:"photo_urls" json:"photo_urls"`
	LikeCount    int                 `bson:"like_count" json:"like_count"`
	DislikeCount int                 `bson:"dislike_count" json:"dislike_count"`

	IsActive  bool      `bson:"is_active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool { return c.ParentID != nil }
