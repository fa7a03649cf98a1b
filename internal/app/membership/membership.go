// Package membership owns the member list embedded in a Group and the
// transitions between membership states.
//
// Every function here is pure: it edits the *models.Group it is given and
// performs no I/O. Callers run a transition inside groupstore.Mutate so the
// whole member list is written back with a version check.
//
// Invariants kept by every transition:
//   - a user appears at most once in Members
//   - the creator is present with role admin and status active
//   - MemberCount equals the number of active entries, maintained
//     incrementally
package membership

import (
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAlreadyMember      = apperr.Validation("already a member")
	ErrApplicationPending = apperr.Validation("application pending")
	ErrJoinBlocked        = apperr.Validation("join blocked")
	ErrNotMember          = apperr.Validation("not a member of this group")
	ErrNoPendingRequest   = apperr.Validation("no pending membership request for this user")
	ErrTargetNotActive    = apperr.Validation("only active members can have their role changed")
	ErrNotBanned          = apperr.Validation("user is not banned")
	ErrInvalidRole        = apperr.Validation("invalid role")
	ErrInvalidStatus      = apperr.Validation("invalid membership status")
	ErrInvalidVisibility  = apperr.Validation("invalid visibility")

	ErrTargetNotFound = apperr.NotFound("user is not a member of this group")

	ErrCreatorCannotLeave  = apperr.Forbidden("the group creator cannot leave the group")
	ErrCreatorImmutable    = apperr.Forbidden("the group creator's membership cannot be changed")
	ErrCannotManageMembers = apperr.Forbidden("not allowed to manage membership requests")
	ErrCannotChangeRoles   = apperr.Forbidden("not allowed to change member roles")
	ErrCannotBan           = apperr.Forbidden("not allowed to ban members")
)

// ValidRole reports whether role is a group role.
func ValidRole(role string) bool {
	switch role {
	case models.MemberRoleMember, models.MemberRoleModerator, models.MemberRoleAdmin:
		return true
	}
	return false
}

// ValidStatus reports whether status is a membership status.
func ValidStatus(status string) bool {
	switch status {
	case models.MemberStatusActive, models.MemberStatusPending, models.MemberStatusBanned:
		return true
	}
	return false
}

// ValidVisibility reports whether v is a group visibility.
func ValidVisibility(v string) bool {
	switch v {
	case models.VisibilityOpen, models.VisibilityClosed, models.VisibilitySecret:
		return true
	}
	return false
}

// Seed initializes the member list of a new group with its creator as the
// single active admin.
func Seed(g *models.Group, now time.Time) {
	g.Members = []models.Member{{
		UserID:   g.CreatorID,
		Role:     models.MemberRoleAdmin,
		Status:   models.MemberStatusActive,
		JoinedAt: now,
	}}
	g.MemberCount = 1
}

// Join adds user to g. Closed groups admit into pending; open and secret
// groups admit directly into active. It returns the resulting status.
func Join(g *models.Group, user primitive.ObjectID, now time.Time) (string, error) {
	r := NewRoster(g.Members)
	if m, ok := r.Get(user); ok {
		switch m.Status {
		case models.MemberStatusActive:
			return "", ErrAlreadyMember
		case models.MemberStatusPending:
			return "", ErrApplicationPending
		default:
			return "", ErrJoinBlocked
		}
	}

	status := models.MemberStatusActive
	if g.Visibility == models.VisibilityClosed {
		status = models.MemberStatusPending
	}
	r.add(models.Member{
		UserID:   user,
		Role:     models.MemberRoleMember,
		Status:   status,
		JoinedAt: now,
	})
	if status == models.MemberStatusActive {
		g.MemberCount++
	}
	g.Members = r.Members()
	return status, nil
}

// Leave removes user from g. A pending applicant may withdraw this way.
// Banned users are not members and cannot clear their ban by leaving.
func Leave(g *models.Group, user primitive.ObjectID) error {
	if user == g.CreatorID {
		return ErrCreatorCannotLeave
	}
	r := NewRoster(g.Members)
	m, ok := r.Get(user)
	if !ok || m.Status == models.MemberStatusBanned {
		return ErrNotMember
	}
	removed, _ := r.remove(user)
	if removed.Status == models.MemberStatusActive {
		decrement(g)
	}
	g.Members = r.Members()
	return nil
}

// Approve resolves a pending request. accept=true activates the member;
// accept=false removes the entry and leaves the count unchanged.
func Approve(g *models.Group, actor, user primitive.ObjectID, accept bool) error {
	r := NewRoster(g.Members)
	if !canModerate(r, actor) {
		return ErrCannotManageMembers
	}
	m, ok := r.Get(user)
	if !ok || m.Status != models.MemberStatusPending {
		return ErrNoPendingRequest
	}
	if accept {
		m.Status = models.MemberStatusActive
		g.MemberCount++
	} else {
		r.remove(user)
	}
	g.Members = r.Members()
	return nil
}

// SetRole changes an active member's role. Only the creator or an active
// admin may do this, and never to the creator.
func SetRole(g *models.Group, actor, user primitive.ObjectID, role string) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	r := NewRoster(g.Members)
	if !canAdminister(g, r, actor) {
		return ErrCannotChangeRoles
	}
	m, ok := r.Get(user)
	if !ok {
		return ErrTargetNotFound
	}
	if m.Status != models.MemberStatusActive {
		return ErrTargetNotActive
	}
	if user == g.CreatorID {
		return ErrCreatorImmutable
	}
	m.Role = role
	g.Members = r.Members()
	return nil
}

// Ban marks user as banned so later joins are rejected. A user who is not
// in the list gets a banned entry.
func Ban(g *models.Group, actor, user primitive.ObjectID, now time.Time) error {
	r := NewRoster(g.Members)
	if !canAdminister(g, r, actor) {
		return ErrCannotBan
	}
	if user == g.CreatorID {
		return ErrCreatorImmutable
	}
	m, ok := r.Get(user)
	if !ok {
		r.add(models.Member{
			UserID:   user,
			Role:     models.MemberRoleMember,
			Status:   models.MemberStatusBanned,
			JoinedAt: now,
		})
		g.Members = r.Members()
		return nil
	}
	if m.Status == models.MemberStatusActive {
		decrement(g)
	}
	m.Status = models.MemberStatusBanned
	m.Role = models.MemberRoleMember
	g.Members = r.Members()
	return nil
}

// Unban removes a banned entry so the user may join again.
func Unban(g *models.Group, actor, user primitive.ObjectID) error {
	r := NewRoster(g.Members)
	if !canAdminister(g, r, actor) {
		return ErrCannotBan
	}
	m, ok := r.Get(user)
	if !ok || m.Status != models.MemberStatusBanned {
		return ErrNotBanned
	}
	r.remove(user)
	g.Members = r.Members()
	return nil
}

// AddMember is the administrative path used by seeding: it writes role and
// status for user, appending if absent. The count moves only when the
// active state of the entry changes.
func AddMember(g *models.Group, user primitive.ObjectID, role, status string, now time.Time) error {
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	if user == g.CreatorID && (role != models.MemberRoleAdmin || status != models.MemberStatusActive) {
		return ErrCreatorImmutable
	}

	r := NewRoster(g.Members)
	wasActive := false
	if m, ok := r.Get(user); ok {
		wasActive = m.Status == models.MemberStatusActive
		m.Role = role
		m.Status = status
	} else {
		r.add(models.Member{UserID: user, Role: role, Status: status, JoinedAt: now})
	}

	isActive := status == models.MemberStatusActive
	switch {
	case isActive && !wasActive:
		g.MemberCount++
	case wasActive && !isActive:
		decrement(g)
	}
	g.Members = r.Members()
	return nil
}

// IsActiveMember reports whether user is an active member of g.
func IsActiveMember(g *models.Group, user primitive.ObjectID) bool {
	m, ok := NewRoster(g.Members).Get(user)
	return ok && m.Status == models.MemberStatusActive
}

// RoleOf returns user's role, or ok=false unless the user is active.
func RoleOf(g *models.Group, user primitive.ObjectID) (role string, ok bool) {
	m, found := NewRoster(g.Members).Get(user)
	if !found || m.Status != models.MemberStatusActive {
		return "", false
	}
	return m.Role, true
}

// StatusOf returns user's membership status, or "" when absent.
func StatusOf(g *models.Group, user primitive.ObjectID) string {
	if m, ok := NewRoster(g.Members).Get(user); ok {
		return m.Status
	}
	return ""
}

// IsGroupAdmin reports whether user is the creator or an active admin.
func IsGroupAdmin(g *models.Group, user primitive.ObjectID) bool {
	return canAdminister(g, NewRoster(g.Members), user)
}

func canModerate(r *Roster, actor primitive.ObjectID) bool {
	m, ok := r.Get(actor)
	if !ok || m.Status != models.MemberStatusActive {
		return false
	}
	return m.Role == models.MemberRoleAdmin || m.Role == models.MemberRoleModerator
}

func canAdminister(g *models.Group, r *Roster, actor primitive.ObjectID) bool {
	if actor == g.CreatorID {
		return true
	}
	m, ok := r.Get(actor)
	return ok && m.Status == models.MemberStatusActive && m.Role == models.MemberRoleAdmin
}

// decrement lowers the active count, never below one: the creator is
// always active.
func decrement(g *models.Group) {
	g.MemberCount--
	if g.MemberCount < 1 {
		g.MemberCount = 1
	}
}
