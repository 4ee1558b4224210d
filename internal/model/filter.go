package model

import "fmt"

const PageSize = 50

// Filter is the active job list filter. Empty strings mean "no filter".
type Filter struct {
	Vendor     string
	SearchTerm string
	Since      string
}

// FilterPatch changes only the non-nil fields; a pointer to "" clears one.
type FilterPatch struct {
	Vendor     *string
	SearchTerm *string
	Since      *string
}

func (f Filter) Apply(p FilterPatch) Filter {
	if p.Vendor != nil {
		f.Vendor = *p.Vendor
	}
	if p.SearchTerm != nil {
		f.SearchTerm = *p.SearchTerm
	}
	if p.Since != nil {
		f.Since = *p.Since
	}
	return f
}

type SortField string

const (
	SortDate     SortField = "date"
	SortTitle    SortField = "title"
	SortLocation SortField = "location"
	SortCompany  SortField = "company"
)

func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortDate, SortTitle, SortLocation, SortCompany:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// DefaultDirection is newest-first for dates and alphabetical otherwise.
func (f SortField) DefaultDirection() Direction {
	if f == SortDate {
		return Desc
	}
	return Asc
}

type Sort struct {
	Field     SortField
	Direction Direction
}

var DefaultSort = Sort{Field: SortDate, Direction: Desc}

// JobQuery is the request sent to GET /jobs.
type JobQuery struct {
	Limit  int
	Offset int
	Filter Filter
}
