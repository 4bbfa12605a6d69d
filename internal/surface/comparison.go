package surface

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shinji-kodama/hgbuf/internal/model"
)

// Comparison groups the revision surfaces of a multi-way comparison of one
// source. The members are disposed together.
type Comparison struct {
	// ID is a uuid assigned when the comparison starts.
	ID string

	// Origin is the source being compared.
	Origin model.SourceHandle

	members []string
}

// Members returns the IDs of the member surfaces in creation order.
func (c *Comparison) Members() []string {
	return append([]string(nil), c.members...)
}

func (c *Comparison) remove(id string) bool {
	for i, m := range c.members {
		if m == id {
			c.members = append(c.members[:i], c.members[i+1:]...)
			return true
		}
	}
	return false
}

// StartComparison begins a comparison of the source h. Any previous
// comparison is disposed of, and stale comparison surfaces left for h are
// wiped so the new comparison starts from a clean state.
func (r *Registry) StartComparison(h model.SourceHandle) (*Comparison, error) {
	if _, err := r.sources.Get(h); err != nil {
		return nil, err
	}

	r.EndComparison()
	r.WipeAllForSource(h, model.KindCompare)

	r.comparison = &Comparison{ID: uuid.NewString(), Origin: h}
	r.logger.Debug("comparison started",
		zap.String("id", r.comparison.ID), zap.Stringer("source", h))
	return r.comparison, nil
}

// Comparison returns the active comparison, if any.
func (r *Registry) Comparison() (*Comparison, bool) {
	return r.comparison, r.comparison != nil
}

// EndComparison closes every member of the active comparison and returns
// how many surfaces were closed.
func (r *Registry) EndComparison() int {
	c := r.comparison
	if c == nil {
		return 0
	}

	n := 0
	for _, id := range c.Members() {
		if s, ok := r.surfaces[id]; ok {
			r.close(s)
			n++
		}
	}
	r.comparison = nil
	return n
}

// CloseSource reports that the view of source h was closed. If h is the
// origin of the active comparison the whole comparison is disposed of.
// It returns the number of surfaces closed.
func (r *Registry) CloseSource(h model.SourceHandle) int {
	if r.comparison == nil || r.comparison.Origin != h {
		return 0
	}
	return r.EndComparison()
}
