// internal/app/seed/seed.go
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dalemusser/campusforum/internal/app/membership"
	commentstore "github.com/dalemusser/campusforum/internal/app/store/comments"
	forumstore "github.com/dalemusser/campusforum/internal/app/store/forums"
	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	pollstore "github.com/dalemusser/campusforum/internal/app/store/polls"
	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/auth"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the YAML document accepted by the seed command. Users are
// referenced elsewhere by username.
type File struct {
	Users  []User  `yaml:"users"`
	Groups []Group `yaml:"groups"`
	Forums []Forum `yaml:"forums"`
	Polls  []Poll  `yaml:"polls"`
}

type User struct {
	Email      string `yaml:"email"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	University string `yaml:"university"`
	Gender     string `yaml:"gender"`
	Role       string `yaml:"role"`
}

type Group struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Visibility  string   `yaml:"visibility"`
	Categories  []string `yaml:"categories"`
	Creator     string   `yaml:"creator"`
	Members     []Member `yaml:"members"`
}

type Member struct {
	User   string `yaml:"user"`
	Role   string `yaml:"role"`   // default member
	Status string `yaml:"status"` // default active
}

type Forum struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Category    string    `yaml:"category"`
	University  string    `yaml:"university"`
	Owner       string    `yaml:"owner"`
	Comments    []Comment `yaml:"comments"`
}

// Comment may carry replies, which are created with the comment as parent.
type Comment struct {
	Author  string    `yaml:"author"`
	Content string    `yaml:"content"`
	Replies []Comment `yaml:"replies"`
}

type Poll struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Category    string     `yaml:"category"`
	University  string     `yaml:"university"`
	Owner       string     `yaml:"owner"`
	Options     []string   `yaml:"options"`
	EndsAt      *time.Time `yaml:"ends_at"`
}

// Result counts what Apply wrote.
type Result struct {
	UsersCreated  int
	UsersReused   int
	GroupsCreated int
	GroupsReused  int
	Members       int
	Forums        int
	Comments      int
	Polls         int
}

// Load parses a seed document. Unknown keys are rejected so typos surface.
func Load(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return f, nil
}

// Apply writes f into db. Users are matched by email and groups by name,
// so re-running a file does not duplicate them; forums, comments and polls
// are created on every run.
func Apply(ctx context.Context, db *mongo.Database, f File, logger *zap.Logger) (Result, error) {
	s := seeder{
		users:    userstore.New(db),
		groups:   groupstore.New(db),
		forums:   forumstore.New(db),
		comments: commentstore.New(db),
		polls:    pollstore.New(db),
		ids:      make(map[string]primitive.ObjectID),
		log:      logger,
	}
	for _, u := range f.Users {
		if err := s.user(ctx, u); err != nil {
			return s.res, fmt.Errorf("user %q: %w", u.Username, err)
		}
	}
	for _, g := range f.Groups {
		if err := s.group(ctx, g); err != nil {
			return s.res, fmt.Errorf("group %q: %w", g.Name, err)
		}
	}
	for _, fm := range f.Forums {
		if err := s.forum(ctx, fm); err != nil {
			return s.res, fmt.Errorf("forum %q: %w", fm.Title, err)
		}
	}
	for _, p := range f.Polls {
		if err := s.poll(ctx, p); err != nil {
			return s.res, fmt.Errorf("poll %q: %w", p.Title, err)
		}
	}
	return s.res, nil
}

type seeder struct {
	users    *userstore.Store
	groups   *groupstore.Store
	forums   *forumstore.Store
	comments *commentstore.Store
	polls    *pollstore.Store

	ids map[string]primitive.ObjectID // folded username -> id
	res Result
	log *zap.Logger
}

func key(username string) string { return strings.ToLower(strings.TrimSpace(username)) }

func (s *seeder) lookup(username string) (primitive.ObjectID, error) {
	id, ok := s.ids[key(username)]
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unknown user %q", username)
	}
	return id, nil
}

func (s *seeder) user(ctx context.Context, in User) error {
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		s.ids[key(in.Username)] = existing.ID
		s.res.UsersReused++
		return nil
	}
	if !userstore.IsNotFound(err) {
		return err
	}

	if err := auth.ValidatePassword(in.Password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return err
	}
	u, err := s.users.Create(ctx, models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		University:   in.University,
		Gender:       in.Gender,
		Role:         in.Role,
	})
	if err != nil {
		return err
	}
	s.ids[key(in.Username)] = u.ID
	s.res.UsersCreated++
	s.log.Debug("seeded user", zap.String("username", u.Username))
	return nil
}

func (s *seeder) group(ctx context.Context, in Group) error {
	creator, err := s.lookup(in.Creator)
	if err != nil {
		return err
	}
	g, err := s.groups.GetByNameCI(ctx, in.Name)
	switch {
	case err == nil:
		s.res.GroupsReused++
	case err == mongo.ErrNoDocuments:
		g, err = s.groups.Create(ctx, models.Group{
			Name:        in.Name,
			Description: in.Description,
			Visibility:  in.Visibility,
			Categories:  in.Categories,
			CreatorID:   creator,
		})
		if err != nil {
			return err
		}
		s.res.GroupsCreated++
	default:
		return err
	}

	if len(in.Members) == 0 {
		return nil
	}
	type entry struct {
		id           primitive.ObjectID
		role, status string
	}
	entries := make([]entry, 0, len(in.Members))
	for _, m := range in.Members {
		id, err := s.lookup(m.User)
		if err != nil {
			return err
		}
		e := entry{id: id, role: m.Role, status: m.Status}
		if e.role == "" {
			e.role = models.MemberRoleMember
		}
		if e.status == "" {
			e.status = models.MemberStatusActive
		}
		entries = append(entries, e)
	}

	now := time.Now().UTC()
	_, err = s.groups.Mutate(ctx, g.ID, func(g *models.Group) error {
		for _, e := range entries {
			if err := membership.AddMember(g, e.id, e.role, e.status, now); err != nil {
				return fmt.Errorf("member %s: %w", e.id.Hex(), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.res.Members += len(entries)
	return nil
}

func (s *seeder) forum(ctx context.Context, in Forum) error {
	owner, err := s.lookup(in.Owner)
	if err != nil {
		return err
	}
	fm, err := s.forums.Create(ctx, models.Forum{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		University:  in.University,
		OwnerID:     owner,
	})
	if err != nil {
		return err
	}
	s.res.Forums++
	return s.commentTree(ctx, fm.ID, nil, in.Comments)
}

func (s *seeder) commentTree(ctx context.Context, forum primitive.ObjectID, parent *primitive.ObjectID, list []Comment) error {
	for _, in := range list {
		author, err := s.lookup(in.Author)
		if err != nil {
			return err
		}
		c, err := s.comments.Create(ctx, models.Comment{
			ForumID:  forum,
			OwnerID:  author,
			ParentID: parent,
			Content:  in.Content,
		})
		if err != nil {
			return err
		}
		if err := s.forums.AdjustCommentCount(ctx, forum, 1); err != nil {
			return err
		}
		s.res.Comments++
		if err := s.commentTree(ctx, forum, &c.ID, in.Replies); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) poll(ctx context.Context, in Poll) error {
	owner, err := s.lookup(in.Owner)
	if err != nil {
		return err
	}
	opts, err := pollstore.NewOptions(in.Options)
	if err != nil {
		return err
	}
	if _, err := s.polls.Create(ctx, models.Poll{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		University:  in.University,
		OwnerID:     owner,
		Options:     opts,
		EndsAt:      in.EndsAt,
	}); err != nil {
		return err
	}
	s.res.Polls++
	return nil
}
