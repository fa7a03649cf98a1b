package membership

import (
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/domain/models"
)

// Filter narrows ListMembers. Empty fields match everything.
type Filter struct {
	Status string
	Role   string
}

func (f Filter) match(m models.Member) bool {
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.Role != "" && m.Role != f.Role {
		return false
	}
	return true
}

// ListMembers returns one page of the filtered members in list order and
// the size of the filtered subsequence.
func ListMembers(g *models.Group, f Filter, p paging.Params) ([]models.Member, int64) {
	filtered := make([]models.Member, 0, len(g.Members))
	for _, m := range g.Members {
		if f.match(m) {
			filtered = append(filtered, m)
		}
	}
	page := paging.Window(filtered, p)
	out := make([]models.Member, len(page))
	copy(out, page)
	return out, int64(len(filtered))
}
