package joblist

import (
	"jobdash/internal/model"
	"jobdash/internal/schedule"
	"time"
)

// SearchBox forwards search keystrokes to a Controller once typing has
// paused for the debounce delay.
type SearchBox struct {
	c *Controller
	d *schedule.Debouncer
}

func NewSearchBox(c *Controller, delay time.Duration) *SearchBox {
	return &SearchBox{c: c, d: schedule.NewDebouncer(delay)}
}

func (s *SearchBox) Type(term string) {
	s.d.Trigger(func() {
		s.c.SetFilters(model.FilterPatch{SearchTerm: &term})
	})
}

func (s *SearchBox) Pending() bool {
	return s.d.Pending()
}

func (s *SearchBox) Close() {
	s.d.Close()
}
