// Package query is the read side of the engine: paginated, filtered access to
// ranked matches and individual listings.
package query

import (
	"context"
	"fmt"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/store"
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// ResultPage is one page of ranked matches plus paging metadata.
type ResultPage struct {
	Rows    []store.MatchRow
	Page    int
	Size    int
	Total   int
	HasNext bool
}

// Service answers read queries against a Store.
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// RankedMatches returns one page of a profile's matches. Pages are 1-indexed;
// page zero and size zero select the defaults. A page past the end of the
// result set is not an error and comes back empty with the true total.
func (s *Service) RankedMatches(ctx context.Context, profileID string, filters store.Filters, sort store.Sort, page store.Page) (ResultPage, error) {
	if profileID == "" {
		return ResultPage{}, fmt.Errorf("profile id is required")
	}
	if page.Number <= 0 {
		page.Number = 1
	}
	if page.Size <= 0 {
		page.Size = DefaultPageSize
	}
	if page.Size > MaxPageSize {
		page.Size = MaxPageSize
	}
	if sort == "" {
		sort = store.SortByScore
	}

	rows, total, err := s.store.RankedMatches(ctx, profileID, filters, sort, page)
	if err != nil {
		return ResultPage{}, fmt.Errorf("ranked matches for %q: %w", profileID, err)
	}

	return ResultPage{
		Rows:    rows,
		Page:    page.Number,
		Size:    page.Size,
		Total:   total,
		HasNext: page.Offset()+len(rows) < total,
	}, nil
}

// GetListing fetches one listing by identity.
func (s *Service) GetListing(ctx context.Context, id job.Identity) (job.Listing, error) {
	if id.IsZero() {
		return job.Listing{}, fmt.Errorf("listing identity is required")
	}
	return s.store.GetListing(ctx, id)
}
