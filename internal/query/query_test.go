package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/store"
	"github.com/zauns/job-search/internal/store/memory"
)

func seedMatches(t *testing.T, st *memory.Store, n int) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < n; i++ {
		ref := fmt.Sprintf("%d", i)
		l := job.Listing{
			ID:          job.Identity{Source: "test", Ref: ref},
			Title:       "Go Developer " + ref,
			Company:     "Acme",
			SourceURL:   "https://test/" + ref,
			CollectedAt: now.Add(-time.Duration(i) * time.Minute),
		}
		if _, err := st.UpsertListing(ctx, l); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := job.Match{
			ProfileID:  "p",
			ListingID:  l.ID,
			Score:      1 - float64(i)/float64(n),
			ComputedAt: now,
		}
		if err := st.UpsertMatch(ctx, m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestRankedMatchesDefaults(t *testing.T) {
	st := memory.New()
	seedMatches(t, st, 65)
	svc := NewService(st)

	page, err := svc.RankedMatches(context.Background(), "p", store.Filters{}, "", store.Page{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if page.Page != 1 || page.Size != DefaultPageSize {
		t.Fatalf("expected defaulted paging, got page=%d size=%d", page.Page, page.Size)
	}
	if len(page.Rows) != DefaultPageSize {
		t.Fatalf("expected a full default page, got %d rows", len(page.Rows))
	}
	if page.Total != 65 || !page.HasNext {
		t.Fatalf("expected total 65 with a next page, got total=%d hasNext=%v", page.Total, page.HasNext)
	}
}

func TestRankedMatchesLastPage(t *testing.T) {
	st := memory.New()
	seedMatches(t, st, 65)
	svc := NewService(st)

	page, err := svc.RankedMatches(context.Background(), "p", store.Filters{}, store.SortByScore, store.Page{Number: 3, Size: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Rows) != 5 || page.HasNext {
		t.Fatalf("expected 5 rows on the last page, got %d hasNext=%v", len(page.Rows), page.HasNext)
	}
}

func TestRankedMatchesPastTheEnd(t *testing.T) {
	st := memory.New()
	seedMatches(t, st, 5)
	svc := NewService(st)

	page, err := svc.RankedMatches(context.Background(), "p", store.Filters{}, store.SortByScore, store.Page{Number: 9, Size: 30})
	if err != nil {
		t.Fatalf("a page past the end must not be an error: %v", err)
	}
	if len(page.Rows) != 0 || page.Total != 5 || page.HasNext {
		t.Fatalf("expected an empty page with the true total, got rows=%d total=%d", len(page.Rows), page.Total)
	}
}

func TestRankedMatchesCapsPageSize(t *testing.T) {
	st := memory.New()
	seedMatches(t, st, 5)
	svc := NewService(st)

	page, err := svc.RankedMatches(context.Background(), "p", store.Filters{}, store.SortByScore, store.Page{Number: 1, Size: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Size != MaxPageSize {
		t.Fatalf("expected the page size capped at %d, got %d", MaxPageSize, page.Size)
	}
}

func TestRankedMatchesRequiresProfile(t *testing.T) {
	svc := NewService(memory.New())
	if _, err := svc.RankedMatches(context.Background(), "", store.Filters{}, store.SortByScore, store.Page{}); err == nil {
		t.Fatalf("expected an error for a missing profile id")
	}
}
