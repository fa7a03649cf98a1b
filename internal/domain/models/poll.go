package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Poll is a question with a fixed option list and one vote per user.
type Poll struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	University  string             `bson:"university,omitempty" json:"university,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	EndsAt      *time.Time         `bson:"ends_at,omitempty" json:"ends_at,omitempty"`
	Options     []PollOption       `bson:"options" json:"options"`
	Votes       []PollVote         `bson:"votes" json:"-"`

	Version   int64     `bson:"version" json:"-"`
	IsActive  bool      `bson:"is_active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PollOption is a choice with its running tally.
type PollOption struct {
	ID    string `bson:"id" json:"id"`
	Text  string `bson:"text" json:"text"`
	Votes int    `bson:"votes" json:"votes"`
}

// PollVote records which option a user picked.
type PollVote struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	OptionID string             `bson:"option_id" json:"option_id"`
	VotedAt  time.Time          `bson:"voted_at" json:"voted_at"`
}

// Open reports whether the poll still accepts votes at now.
func (p Poll) Open(now time.Time) bool {
	return p.EndsAt == nil || now.Before(*p.EndsAt)
}
