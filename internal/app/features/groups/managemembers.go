// internal/app/features/groups/managemembers.go
package groups

import (
	"net/http"
	"time"

	"github.com/dalemusser/campusforum/internal/app/membership"
	"github.com/dalemusser/campusforum/internal/app/store/audit"
	groupstore "github.com/dalemusser/campusforum/internal/app/store/groups"
	userstore "github.com/dalemusser/campusforum/internal/app/store/users"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var errUserNotFound = apperr.NotFound("user not found")

// change is the audit record of one applied transition.
type change struct {
	event   string
	message string
	details map[string]string
}

// transition applies one membership rule to a fresh copy of the group.
type transition func(g *models.Group, actor, user primitive.ObjectID, now time.Time) (change, error)

// membershipView is what every membership endpoint returns.
type membershipView struct {
	GroupID     primitive.ObjectID `json:"group_id"`
	UserID      primitive.ObjectID `json:"user_id"`
	Status      string             `json:"status,omitempty"`
	Role        string             `json:"role,omitempty"`
	MemberCount int                `json:"member_count"`
}

// mutate runs apply inside groupstore.Mutate so concurrent transitions on
// the same group serialize on its version, then records the audit event.
// self targets the caller; otherwise the target is the {user} path param.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, self bool, apply transition) {
	_, _, actor, _ := authz.UserCtx(r)

	gid, err := urlparam.ObjectID(r, "id", "group")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	user := actor
	if !self {
		if user, err = urlparam.ObjectID(r, "user", "user"); err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
	defer cancel()

	var c change
	g, err := groupstore.New(h.DB).Mutate(ctx, gid, func(g *models.Group) error {
		var err error
		c, err = apply(g, actor, user, time.Now().UTC())
		return err
	})
	if err == mongo.ErrNoDocuments {
		err = errGroupNotFound
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.Audit.MemberChange(ctx, r, c.event, gid, actor, user, c.details)
	role, _ := membership.RoleOf(&g, user)
	respond.OK(w, c.message, membershipView{
		GroupID:     g.ID,
		UserID:      user,
		Status:      membership.StatusOf(&g, user),
		Role:        role,
		MemberCount: g.MemberCount,
	})
}

// HandleJoin handles POST /groups/{id}/join. Closed groups queue the
// caller as pending.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "join group", true, func(g *models.Group, _, user primitive.ObjectID, now time.Time) (change, error) {
		status, err := membership.Join(g, user, now)
		if err != nil {
			return change{}, err
		}
		if status == models.MemberStatusPending {
			return change{event: audit.EventMemberApplied, message: "membership request sent"}, nil
		}
		return change{event: audit.EventMemberJoined, message: "joined group"}, nil
	})
}

// HandleLeave handles POST /groups/{id}/leave. Also withdraws a pending
// request.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "leave group", true, func(g *models.Group, _, user primitive.ObjectID, _ time.Time) (change, error) {
		prev := membership.StatusOf(g, user)
		if err := membership.Leave(g, user); err != nil {
			return change{}, err
		}
		return change{
			event:   audit.EventMemberLeft,
			message: "left group",
			details: map[string]string{"previous_status": prev},
		}, nil
	})
}

type approveInput struct {
	Approve *bool `json:"approve"`
}

// HandleApprove handles POST /groups/{id}/members/{user}/approve.
// {"approve": false} rejects the request.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	var in approveInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.Approve == nil {
		respond.Error(w, r, h.Log, apperr.Validation("Approve is required.").WithField("approve", "Approve is required."))
		return
	}
	accept := *in.Approve

	h.mutate(w, r, "approve member", false, func(g *models.Group, actor, user primitive.ObjectID, _ time.Time) (change, error) {
		if err := membership.Approve(g, actor, user, accept); err != nil {
			return change{}, err
		}
		if accept {
			return change{event: audit.EventMemberApproved, message: "member approved"}, nil
		}
		return change{event: audit.EventMemberRejected, message: "membership request rejected"}, nil
	})
}

type roleInput struct {
	Role string `json:"role" validate:"required,oneof=member moderator admin" label:"Role"`
}

// HandleSetRole handles PUT /groups/{id}/members/{user}/role.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var in roleInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.mutate(w, r, "set member role", false, func(g *models.Group, actor, user primitive.ObjectID, _ time.Time) (change, error) {
		prev, _ := membership.RoleOf(g, user)
		if err := membership.SetRole(g, actor, user, in.Role); err != nil {
			return change{}, err
		}
		return change{
			event:   audit.EventMemberRoleChanged,
			message: "role updated",
			details: map[string]string{"previous_role": prev, "role": in.Role},
		}, nil
	})
}

// HandleBan handles POST /groups/{id}/members/{user}/ban. The target must
// be an existing account; they need not be in the group yet.
func (h *Handler) HandleBan(w http.ResponseWriter, r *http.Request) {
	user, err := urlparam.ObjectID(r, "user", "user")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "ban lookup")
	u, err := userstore.New(h.DB).GetByID(ctx, user)
	cancel()
	if err != nil || !u.IsActive {
		if err != nil && !userstore.IsNotFound(err) {
			respond.Error(w, r, h.Log, err)
			return
		}
		respond.Error(w, r, h.Log, errUserNotFound)
		return
	}

	h.mutate(w, r, "ban member", false, func(g *models.Group, actor, user primitive.ObjectID, now time.Time) (change, error) {
		prev := membership.StatusOf(g, user)
		if err := membership.Ban(g, actor, user, now); err != nil {
			return change{}, err
		}
		return change{
			event:   audit.EventMemberBanned,
			message: "user banned",
			details: map[string]string{"previous_status": prev},
		}, nil
	})
}

// HandleUnban handles DELETE /groups/{id}/members/{user}/ban.
func (h *Handler) HandleUnban(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "unban member", false, func(g *models.Group, actor, user primitive.ObjectID, _ time.Time) (change, error) {
		if err := membership.Unban(g, actor, user); err != nil {
			return change{}, err
		}
		return change{event: audit.EventMemberUnbanned, message: "user unbanned"}, nil
	})
}
