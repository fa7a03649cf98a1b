package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group visibility.
const (
	VisibilityOpen   = "open"
	VisibilityClosed = "closed"
	VisibilitySecret = "secret"
)

// Group member roles.
const (
	MemberRoleMember    = "member"
	MemberRoleModerator = "moderator"
	MemberRoleAdmin     = "admin"
)

// Group member statuses.
const (
	MemberStatusActive  = "active"
	MemberStatusPending = "pending"
	MemberStatusBanned  = "banned"
)

// Group is a community with an embedded, ordered member list.
//
// NOTE:
//   - Members is the only record of membership. Insertion order is join order.
//   - MemberCount always equals the number of members with status "active".
//   - Version is bumped on every write; writers compare-and-swap on it.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description string             `bson:"description" json:"description"`
	LogoURL     string             `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
	CoverURL    string             `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	Visibility  string             `bson:"visibility" json:"visibility"` // open | closed | secret
	CreatorID   primitive.ObjectID `bson:"creator_id" json:"creator_id"`
	Categories  []string           `bson:"categories" json:"categories"`

	MemberCount int      `bson:"member_count" json:"member_count"`
	Members     []Member `bson:"members" json:"members"`

	Version  int64 `bson:"version" json:"-"`
	IsActive bool  `bson:"is_active" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Member is one entry of Group.Members. It is not stored on its own.
type Member struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role     string             `bson:"role" json:"role"`     // member | moderator | admin
	Status   string             `bson:"status" json:"status"` // active | pending | banned
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}
