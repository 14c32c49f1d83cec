package aggregator

import (
	"github.com/atikulmunna/grokline/internal/model"
)

// Stats counts match outcomes across a whole run.
// Parsed+Failed always equals the number of lines observed.
type Stats struct {
	Parsed uint64 `json:"parsed"`
	Failed uint64 `json:"failed"`
}

// Observe records one outcome.
func (s *Stats) Observe(o model.Outcome) {
	if o.IsMatched() {
		s.Parsed++
		return
	}
	s.Failed++
}

// Total returns the number of lines observed.
func (s Stats) Total() uint64 {
	return s.Parsed + s.Failed
}
