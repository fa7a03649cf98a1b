package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media describes an uploaded blob. The bytes live in object storage;
// only metadata is kept here.
type Media struct {
	ID           primitive.ObjectID  `bson:"_id" json:"id"`
	FileName     string              `bson:"file_name" json:"file_name"`
	OriginalName string              `bson:"original_name" json:"original_name"`
	ContentType  string              `bson:"content_type" json:"content_type"`
	Size         int64               `bson:"size" json:"size"`
	URL          string              `bson:"url" json:"url"`
	StorageKey   string              `bson:"storage_key" json:"-"`
	UploaderID   primitive.ObjectID  `bson:"uploader_id" json:"uploader_id"`
	RelatedType  string              `bson:"related_type,omitempty" json:"related_type,omitempty"` // forum | comment | user | group | poll
	RelatedID    *primitive.ObjectID `bson:"related_id,omitempty" json:"related_id,omitempty"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`

	IsActive  bool      `bson:"is_active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
