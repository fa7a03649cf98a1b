// internal/app/store/polls/vote.go
package pollstore

import (
	"math"
	"strings"
	"time"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrPollClosed     = apperr.Validation("this poll is no longer accepting votes")
	ErrOptionNotFound = apperr.NotFound("option not found")
	ErrTooFewOptions  = apperr.Validation("at least two options are required")
	ErrOptionsLocked  = apperr.Validation("options cannot be changed once voting has started")
	ErrEndsInPast     = apperr.Validation("end time must be in the future")
)

// NewOptions builds options from their texts with fresh IDs. Blank texts
// are dropped; fewer than two remaining is ErrTooFewOptions.
func NewOptions(texts []string) ([]models.PollOption, error) {
	out := make([]models.PollOption, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, models.PollOption{ID: uuid.NewString(), Text: t})
	}
	if len(out) < 2 {
		return nil, ErrTooFewOptions.WithField("options", "at least two non-empty options")
	}
	return out, nil
}

// Vote records user's choice. A previous vote for another option is moved;
// repeating the same choice changes nothing and reports false.
func Vote(p *models.Poll, user primitive.ObjectID, optionID string, now time.Time) (bool, error) {
	if !p.Open(now) {
		return false, ErrPollClosed
	}
	target := -1
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			target = i
			break
		}
	}
	if target < 0 {
		return false, ErrOptionNotFound
	}

	for i := range p.Votes {
		if p.Votes[i].UserID != user {
			continue
		}
		prev := p.Votes[i].OptionID
		if prev == optionID {
			return false, nil
		}
		for j := range p.Options {
			if p.Options[j].ID == prev && p.Options[j].Votes > 0 {
				p.Options[j].Votes--
			}
		}
		p.Options[target].Votes++
		p.Votes[i].OptionID = optionID
		p.Votes[i].VotedAt = now
		return true, nil
	}

	p.Options[target].Votes++
	p.Votes = append(p.Votes, models.PollVote{UserID: user, OptionID: optionID, VotedAt: now})
	return true, nil
}

// OptionResult is one row of Results.
type OptionResult struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Votes   int     `json:"votes"`
	Percent float64 `json:"percent"`
}

// Results summarizes a poll for viewer. Percentages are rounded to one
// decimal place and are all zero when nobody has voted.
type Results struct {
	PollID     primitive.ObjectID `json:"poll_id"`
	Title      string             `json:"title"`
	Open       bool               `json:"open"`
	TotalVotes int                `json:"total_votes"`
	Options    []OptionResult     `json:"options"`
	HasVoted   bool               `json:"has_voted"`
	VotedFor   string             `json:"voted_for,omitempty"`
}

func Tally(p models.Poll, viewer *primitive.ObjectID, now time.Time) Results {
	r := Results{
		PollID:  p.ID,
		Title:   p.Title,
		Open:    p.Open(now),
		Options: make([]OptionResult, 0, len(p.Options)),
	}
	for _, o := range p.Options {
		r.TotalVotes += o.Votes
	}
	for _, o := range p.Options {
		row := OptionResult{ID: o.ID, Text: o.Text, Votes: o.Votes}
		if r.TotalVotes > 0 {
			row.Percent = math.Round(float64(o.Votes)*1000/float64(r.TotalVotes)) / 10
		}
		r.Options = append(r.Options, row)
	}
	if viewer != nil {
		for _, v := range p.Votes {
			if v.UserID == *viewer {
				r.HasVoted = true
				r.VotedFor = v.OptionID
				break
			}
		}
	}
	return r
}

// Update holds owner-editable poll fields. Nil means unchanged.
type Update struct {
	Title       *string
	Description *string
	Category    *string
	University  *string
	EndsAt      *time.Time
	Options     *[]string
}

// Apply edits p in place. Options may only be replaced before the first vote.
func (u Update) Apply(p *models.Poll, now time.Time) error {
	if u.Options != nil {
		if len(p.Votes) > 0 {
			return ErrOptionsLocked
		}
		opts, err := NewOptions(*u.Options)
		if err != nil {
			return err
		}
		p.Options = opts
	}
	if u.EndsAt != nil {
		if !u.EndsAt.After(now) {
			return ErrEndsInPast.WithField("ends_at", "must be in the future")
		}
		t := u.EndsAt.UTC()
		p.EndsAt = &t
	}
	if u.Title != nil {
		p.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Category != nil {
		p.Category = strings.TrimSpace(*u.Category)
	}
	if u.University != nil {
		p.University = strings.TrimSpace(*u.University)
	}
	return nil
}
