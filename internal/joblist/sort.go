package joblist

import (
	"jobdash/internal/model"
	"slices"
	"strings"
)

// sortRecords returns a sorted copy of recs. The sort is stable, so
// equal keys keep the order the backend returned them in.
func sortRecords(recs []model.JobRecord, s model.Sort) []model.JobRecord {
	out := slices.Clone(recs)
	cmp := comparator(s.Field)

	slices.SortStableFunc(out, func(a, b model.JobRecord) int {
		if s.Direction == model.Desc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return out
}

func comparator(f model.SortField) func(a, b model.JobRecord) int {
	switch f {
	case model.SortTitle:
		return byText(model.JobRecord.Title)
	case model.SortLocation:
		return byText(model.JobRecord.Location)
	case model.SortCompany:
		return byText(model.JobRecord.Company)
	default:
		return byDate
	}
}

func byText(get func(model.JobRecord) string) func(a, b model.JobRecord) int {
	return func(a, b model.JobRecord) int {
		return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
	}
}

func byDate(a, b model.JobRecord) int {
	ta, tb := a.PostedAt(), b.PostedAt()
	if c := ta.Compare(tb); c != 0 {
		return c
	}
	if ta.IsZero() {
		return strings.Compare(a.Date(), b.Date())
	}
	return 0
}
