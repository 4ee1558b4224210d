package joblist

import (
	"context"
	"jobdash/internal/model"
	"slices"
	"testing"
)

func titles(recs []model.JobRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title()
	}
	return out
}

var page = []model.JobRecord{
	{"Position Title": "Welder", "Vendor": "HII", "Raw Location": "Newport News, VA", "Post Date": "2024-03-01"},
	{"Position Title": "analyst", "Vendor": "Leidos", "Raw Location": "Reston, VA", "Post Date": "2024-05-10"},
	{"title": "Engineer", "Company": "boeing", "Location": "Seattle, WA", "Post Date": "2024-05-10"},
	{"Position Title": "Pilot", "Vendor": "BAE", "Raw Location": "Austin, TX"},
	{"Position Title": "Buyer", "Vendor": "RTX", "Raw Location": "Tucson, AZ", "posted_date": "2023-12-31"},
}

func TestSortDefaults(t *testing.T) {
	tests := []struct {
		field model.SortField
		want  []string
	}{
		{field: model.SortTitle, want: []string{"analyst", "Buyer", "Engineer", "Pilot", "Welder"}},
		{field: model.SortCompany, want: []string{"Pilot", "Engineer", "Welder", "analyst", "Buyer"}},
		{field: model.SortLocation, want: []string{"Pilot", "Welder", "analyst", "Engineer", "Buyer"}},
	}
	for _, tt := range tests {
		got := titles(sortRecords(page, model.Sort{Field: tt.field, Direction: tt.field.DefaultDirection()}))
		if !slices.Equal(got, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.field, got, tt.want)
		}
	}

	got := titles(sortRecords(page, model.Sort{Field: model.SortDate, Direction: model.Desc}))
	want := []string{"analyst", "Engineer", "Welder", "Buyer", "Pilot"}
	if !slices.Equal(got, want) {
		t.Fatalf("date desc: got %v, want %v", got, want)
	}
}

func TestSortIsIdempotent(t *testing.T) {
	for _, f := range []model.SortField{model.SortDate, model.SortTitle, model.SortLocation, model.SortCompany} {
		for _, d := range []model.Direction{model.Asc, model.Desc} {
			s := model.Sort{Field: f, Direction: d}
			once := sortRecords(page, s)
			twice := sortRecords(once, s)
			if !slices.Equal(titles(once), titles(twice)) {
				t.Fatalf("%s %s not idempotent: %v vs %v", f, d, titles(once), titles(twice))
			}
		}
	}
}

func TestSetSortToggles(t *testing.T) {
	f := &funcFetcher{answer: func(q model.JobQuery) ([]model.JobRecord, error) {
		return page, nil
	}}
	c := New(context.Background(), f)
	c.Refresh()
	st := settle(t, c)
	if st.Sort != model.DefaultSort {
		t.Fatalf("initial sort = %+v, want %+v", st.Sort, model.DefaultSort)
	}
	original := titles(st.Records)

	c.SetSort(model.SortDate)
	if got := c.State().Sort.Direction; got != model.Asc {
		t.Fatalf("direction after toggle = %s, want asc", got)
	}
	c.SetSort(model.SortDate)
	if got := titles(c.State().Records); !slices.Equal(got, original) {
		t.Fatalf("double toggle changed order: %v vs %v", got, original)
	}

	c.SetSort(model.SortTitle)
	if got := c.State().Sort; got != (model.Sort{Field: model.SortTitle, Direction: model.Asc}) {
		t.Fatalf("sort after switching field = %+v", got)
	}

	f.mu.Lock()
	n := len(f.queries)
	f.mu.Unlock()
	if n != 1 {
		t.Fatalf("sorting issued %d fetches, want 1 total", n)
	}
}
