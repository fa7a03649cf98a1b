package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Site-wide roles. Group roles live on Member.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User is a registered account.
//
// NOTE:
//   - Group membership is embedded on Group.Members, not on User.
//     Use the groups collection (members.user_id index) to discover a user's groups.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username" json:"username"`
	UsernameCI   string             `bson:"username_ci" json:"-"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Gender       string             `bson:"gender,omitempty" json:"gender,omitempty"`
	University   string             `bson:"university,omitempty" json:"university,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Role         string             `bson:"role" json:"role"` // user | moderator | admin

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`

	IsActive  bool      `bson:"is_active" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsSiteAdmin reports whether the user holds the site-wide admin role.
func (u User) IsSiteAdmin() bool { return u.Role == RoleAdmin }

// IsSiteModerator reports whether the user is a site admin or moderator.
func (u User) IsSiteModerator() bool { return u.Role == RoleAdmin || u.Role == RoleModerator }
