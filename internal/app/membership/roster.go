package membership

import (
	"github.com/dalemusser/campusforum/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roster is the working form of a group's member list: the ordered slice
// plus a position index keyed by user ID. It is built from Group.Members
// and flattened back with Members() before the group is written.
type Roster struct {
	list  []models.Member
	index map[primitive.ObjectID]int
}

// NewRoster indexes ms. The slice is copied; ms is never modified.
// If a user appears more than once, the first entry wins and later
// duplicates are dropped.
func NewRoster(ms []models.Member) *Roster {
	r := &Roster{
		list:  make([]models.Member, 0, len(ms)),
		index: make(map[primitive.ObjectID]int, len(ms)),
	}
	for _, m := range ms {
		if _, dup := r.index[m.UserID]; dup {
			continue
		}
		r.index[m.UserID] = len(r.list)
		r.list = append(r.list, m)
	}
	return r
}

// Get returns a pointer into the roster for in-place edits.
func (r *Roster) Get(userID primitive.ObjectID) (*models.Member, bool) {
	i, ok := r.index[userID]
	if !ok {
		return nil, false
	}
	return &r.list[i], true
}

// Len is the number of entries regardless of status.
func (r *Roster) Len() int { return len(r.list) }

func (r *Roster) add(m models.Member) {
	r.index[m.UserID] = len(r.list)
	r.list = append(r.list, m)
}

func (r *Roster) remove(userID primitive.ObjectID) (models.Member, bool) {
	i, ok := r.index[userID]
	if !ok {
		return models.Member{}, false
	}
	removed := r.list[i]
	r.list = append(r.list[:i], r.list[i+1:]...)
	delete(r.index, userID)
	for j := i; j < len(r.list); j++ {
		r.index[r.list[j].UserID] = j
	}
	return removed, true
}

// Members returns the entries in insertion order.
func (r *Roster) Members() []models.Member {
	out := make([]models.Member, len(r.list))
	copy(out, r.list)
	return out
}

// CountActive scans for active entries. Transitions never call this to
// maintain the counter; it exists for verification.
func (r *Roster) CountActive() int {
	n := 0
	for _, m := range r.list {
		if m.Status == models.MemberStatusActive {
			n++
		}
	}
	return n
}
