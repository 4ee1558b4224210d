package cmd

import (
	"context"
	"fmt"
	"jobdash/internal/joblist"
	"jobdash/internal/model"
	"sync"
	"testing"
)

type pagedFetcher struct {
	mu      sync.Mutex
	total   int
	offsets []int
}

func (f *pagedFetcher) ListJobs(ctx context.Context, q model.JobQuery) ([]model.JobRecord, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, q.Offset)
	f.mu.Unlock()

	var recs []model.JobRecord
	for i := q.Offset; i < min(q.Offset+q.Limit, f.total); i++ {
		recs = append(recs, model.JobRecord{
			"Position Title": fmt.Sprintf("job-%03d", i),
			"Post Date":      fmt.Sprintf("2024-01-%02d", i%28+1),
		})
	}
	return recs, nil
}

func TestPageTo(t *testing.T) {
	ctx := context.Background()
	f := &pagedFetcher{total: 120}
	c := joblist.New(ctx, f)
	c.Refresh()

	if err := pageTo(ctx, c, 2); err != nil {
		t.Fatalf("pageTo: %v", err)
	}

	st := c.State()
	if st.Page != 2 || len(st.Records) != 20 || st.CanGoNext {
		t.Fatalf("state = page %d, %d rows, next %v", st.Page, len(st.Records), st.CanGoNext)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if fmt.Sprint(f.offsets) != "[0 50 100]" {
		t.Fatalf("offsets = %v", f.offsets)
	}
}

func TestPageToPastEnd(t *testing.T) {
	ctx := context.Background()
	c := joblist.New(ctx, &pagedFetcher{total: 30})
	c.Refresh()

	if err := pageTo(ctx, c, 1); err == nil {
		t.Fatal("expected error past the last page")
	}
}

func TestApplySort(t *testing.T) {
	tests := []struct {
		field model.SortField
		dir   *model.Direction
		want  model.Sort
	}{
		{model.SortDate, nil, model.Sort{Field: model.SortDate, Direction: model.Desc}},
		{model.SortDate, new(model.Asc), model.Sort{Field: model.SortDate, Direction: model.Asc}},
		{model.SortTitle, nil, model.Sort{Field: model.SortTitle, Direction: model.Asc}},
		{model.SortTitle, new(model.Desc), model.Sort{Field: model.SortTitle, Direction: model.Desc}},
	}

	for _, tt := range tests {
		c := joblist.New(context.Background(), &pagedFetcher{})
		applySort(c, tt.field, tt.dir)
		if got := c.State().Sort; got != tt.want {
			t.Errorf("applySort(%s) = %+v, want %+v", tt.field, got, tt.want)
		}
	}
}
