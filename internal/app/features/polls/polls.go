// internal/app/features/polls/polls.go
package polls

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/campusforum/internal/app/policy/contentpolicy"
	pollstore "github.com/dalemusser/campusforum/internal/app/store/polls"
	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/authz"
	"github.com/dalemusser/campusforum/internal/app/system/htmlsanitize"
	"github.com/dalemusser/campusforum/internal/app/system/inputval"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"github.com/dalemusser/campusforum/internal/app/system/timeouts"
	"github.com/dalemusser/campusforum/internal/app/system/urlparam"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errNotPollOwner = apperr.Forbidden("you can only change your own polls")

// errSameVote aborts Mutate so a repeated vote writes nothing.
var errSameVote = errors.New("polls: same vote")

type createPollInput struct {
	Title       string     `json:"title" validate:"required,max=200" label:"Title"`
	Description string     `json:"description" validate:"max=5000" label:"Description"`
	Category    string     `json:"category" validate:"max=100" label:"Category"`
	University  string     `json:"university" validate:"max=100" label:"University"`
	EndsAt      *time.Time `json:"ends_at"`
	Options     []string   `json:"options" validate:"required,max=20" label:"Options"`
}

// HandleCreatePoll handles POST /polls.
func (h *Handler) HandleCreatePoll(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var in createPollInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Title = htmlsanitize.StripTags(in.Title)
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	opts, err := pollstore.NewOptions(stripAll(in.Options))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create poll")
	defer cancel()

	p, err := pollstore.New(h.DB).Create(ctx, models.Poll{
		Title:       in.Title,
		Description: htmlsanitize.Content(in.Description),
		OwnerID:     uid,
		Category:    in.Category,
		University:  in.University,
		EndsAt:      in.EndsAt,
		Options:     opts,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.Created(w, "poll created", p)
}

type editPollInput struct {
	Title       *string    `json:"title" validate:"nonblank,max=200" label:"Title"`
	Description *string    `json:"description" validate:"max=5000" label:"Description"`
	Category    *string    `json:"category" validate:"max=100" label:"Category"`
	University  *string    `json:"university" validate:"max=100" label:"University"`
	EndsAt      *time.Time `json:"ends_at"`
	Options     *[]string  `json:"options" validate:"max=20" label:"Options"`
}

// HandleEditPoll handles PUT /polls/{id} (owner or site admin). Options
// can be replaced only while nobody has voted.
func (h *Handler) HandleEditPoll(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "poll")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in editPollInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if in.Title != nil {
		t := htmlsanitize.StripTags(*in.Title)
		in.Title = &t
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	upd := pollstore.Update{
		Title:      in.Title,
		Category:   in.Category,
		University: in.University,
		EndsAt:     in.EndsAt,
	}
	if in.Description != nil {
		d := htmlsanitize.Content(*in.Description)
		upd.Description = &d
	}
	if in.Options != nil {
		opts := stripAll(*in.Options)
		upd.Options = &opts
	}
	if upd == (pollstore.Update{}) {
		respond.Error(w, r, h.Log, errNoChanges)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "edit poll")
	defer cancel()

	p, err := pollstore.New(h.DB).Mutate(ctx, id, func(p *models.Poll) error {
		if !contentpolicy.CanEdit(r, p.OwnerID) {
			return errNotPollOwner
		}
		return upd.Apply(p, time.Now().UTC())
	})
	if err != nil {
		respond.Error(w, r, h.Log, notFound(err))
		return
	}
	respond.OK(w, "poll updated", p)
}

// HandleDeletePoll handles DELETE /polls/{id} (owner or site admin).
func (h *Handler) HandleDeletePoll(w http.ResponseWriter, r *http.Request) {
	id, err := urlparam.ObjectID(r, "id", "poll")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete poll")
	defer cancel()

	store := pollstore.New(h.DB)
	p, err := store.GetActive(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, notFound(err))
		return
	}
	if !contentpolicy.CanEdit(r, p.OwnerID) {
		respond.Error(w, r, h.Log, errNotPollOwner)
		return
	}
	if err := store.SoftDelete(ctx, id); err != nil {
		respond.Error(w, r, h.Log, notFound(err))
		return
	}
	respond.OK(w, "poll deleted", map[string]primitive.ObjectID{"id": id})
}

type voteInput struct {
	OptionID string `json:"option_id" validate:"required" label:"Option"`
}

// HandleVote handles POST /polls/{id}/vote. Voting for another option
// moves the caller's vote; voting for the same option changes nothing.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	id, err := urlparam.ObjectID(r, "id", "poll")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var in voteInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := inputval.Validate(&in).Err(); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "vote")
	defer cancel()

	changed := false
	p, err := pollstore.New(h.DB).Mutate(ctx, id, func(p *models.Poll) error {
		var err error
		changed, err = pollstore.Vote(p, uid, in.OptionID, time.Now().UTC())
		if err == nil && !changed {
			return errSameVote
		}
		return err
	})
	if err == errSameVote {
		p, err = pollstore.New(h.DB).GetActive(ctx, id)
	}
	if err != nil {
		respond.Error(w, r, h.Log, notFound(err))
		return
	}
	msg := "vote recorded"
	if !changed {
		msg = "vote unchanged"
	}
	respond.OK(w, msg, pollstore.Tally(p, &uid, time.Now().UTC()))
}

func stripAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = htmlsanitize.StripTags(s)
	}
	return out
}
