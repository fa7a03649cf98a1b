// internal/app/features/comments/comments.go
package comments

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/campusforum/internal/app/policy/contentpolicy"
	commentstore "github.com/dalemusser/campusforum/internal/app/store/comments"
	forumstore "github.com/dalemusser/campusforum/internal/app/store/forums"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/txn"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	errCommentNotFound = apperr.NotFound("comment not found")
	errForumNotFound   = apperr.NotFound("forum not found")
	errBadParent       = apperr.Validation("parent comment must be an active comment in the same forum").WithField("parent_id", "not a comment in this forum")
	errEmptyContent    = apperr.Validation("Content is required.").WithField("content", "Content is required.")
	errNoChanges       = apperr.Validation("no updatable fields supplied")
)

type createCommentInput struct {
	ForumID   string   `json:"forum_id" validate:"required,objectid" label:"Forum"`
	ParentID  string   `json:"parent_id" validate:"objectid" label:"Parent comment"`
	Content   string   `json:"content" validate:"required,max=5000" label:"Content"`
	PhotoURLs []string `json:"photo_urls" validate:"max=10,httpurl" label:"Photos"`
}

// HandleCreateComment handles POST /comments. The comment and the forum's
// comment_count move together.
func (h *Handler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in createCommentInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	content := htmlsanitize.Content(in.Content)
	if content == "" {
		respond.Error(w, r, h.Log, errEmptyContent)
		return
	}
	forumID, _ := primitive.ObjectIDFromHex(strings.TrimSpace(in.ForumID))
	var parentID *primitive.ObjectID
	if in.ParentID != "" {
		id, _ := primitive.ObjectIDFromHex(strings.TrimSpace(in.ParentID))
		parentID = &id
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create comment")
	defer cancel()

	var created models.Comment
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		forums := forumstore.New(h.DB)
		comments := commentstore.New(h.DB)

		if _, err := forums.GetActive(ctx, forumID); err != nil {
			if err == mongo.ErrNoDocuments {
				return errForumNotFound
			}
			return err
		}
		if parentID != nil {
			parent, err := comments.GetActive(ctx, *parentID)
			if err == mongo.ErrNoDocuments || (err == nil && parent.ForumID != forumID) {
				return errBadParent
			}
			if err != nil {
				return err
			}
		}

		c, err := comments.Create(ctx, models.Comment{
			ForumID:   forumID,
			OwnerID:   uid,
			ParentID:  parentID,
			Content:   content,
			PhotoURLs: in.PhotoURLs,
		})
		if err != nil {
			return err
		}
		created = c
		return forums.AdjustCommentCount(ctx, forumID, 1)
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "comment created", created)
}

// loadComment resolves {id} to an active comment.
func (h *Handler) loadComment(ctx context.Context, r *http.Request) (models.Comment, error) {
	id, err := urlparam.ObjectID(r, "id", "comment")
	if err != nil {
		return models.Comment{}, err
	}
	c, err := commentstore.New(h.DB).GetActive(ctx, id)
	if err == mongo.ErrNoDocuments {
		return models.Comment{}, errCommentNotFound
	}
	return c, err
}

// ServeComment handles GET /comments/{id}.
func (h *Handler) ServeComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get comment")
	defer cancel()

	c, err := h.loadComment(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "", c)
}

// ServeReplies handles GET /comments/{id}/replies, oldest first.
func (h *Handler) ServeReplies(w http.ResponseWriter, r *http.Request) {
	p := paging.Parse(r, paging.DefaultPerPage)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "comment replies")
	defer cancel()

	c, err := h.loadComment(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	rows, total, err := commentstore.New(h.DB).ListReplies(ctx, c.ID, p)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.List(w, "", rows, p.MetaFor(total))
}

type editCommentInput struct {
	Content   *string   `json:"content" validate:"nonblank,max=5000" label:"Content"`
	PhotoURLs *[]string `json:"photo_urls" validate:"max=10,httpurl" label:"Photos"`
}

// HandleEditComment handles PUT /comments/{id} (owner or site admin).
func (h *Handler) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	var in editCommentInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	upd := commentstore.Update{PhotoURLs: in.PhotoURLs}
	if in.Content != nil {
		content := htmlsanitize.Content(*in.Content)
		if content == "" {
			respond.Error(w, r, h.Log, errEmptyContent)
			return
		}
		upd.Content = &content
	}
	if upd == (commentstore.Update{}) {
		respond.Error(w, r, h.Log, errNoChanges)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "edit comment")
	defer cancel()

	c, err := h.loadComment(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !contentpolicy.CanEdit(r, c.OwnerID) {
		respond.Error(w, r, h.Log, apperr.Forbidden("you can only edit your own comments"))
		return
	}
	c, err = commentstore.New(h.DB).Update(ctx, c.ID, upd)
	if err == mongo.ErrNoDocuments {
		err = errCommentNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "comment updated", c)
}

// HandleDeleteComment handles DELETE /comments/{id}: the comment's owner,
// the forum's owner, or a site admin or moderator. Replies stay.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete comment")
	defer cancel()

	c, err := h.loadComment(ctx, r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	forums := forumstore.New(h.DB)
	f, err := forums.GetByID(ctx, c.ForumID)
	if err != nil && err != mongo.ErrNoDocuments {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !contentpolicy.CanModerate(r, c.OwnerID, f.OwnerID) {
		respond.Error(w, r, h.Log, apperr.Forbidden("you cannot delete this comment"))
		return
	}

	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := commentstore.New(h.DB).SoftDelete(ctx, c.ID); err != nil {
			if err == mongo.ErrNoDocuments {
				return errCommentNotFound
			}
			return err
		}
		return forums.AdjustCommentCount(ctx, c.ForumID, -1)
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "comment deleted", map[string]primitive.ObjectID{"id": c.ID})
}
