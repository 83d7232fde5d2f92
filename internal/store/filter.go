package store

import (
	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/textutil"
)

// Accepts reports whether a listing passes the filters.
func (f Filters) Accepts(listing job.Listing) bool {
	if f.WorkMode != job.WorkModeUnspecified && listing.WorkMode != f.WorkMode {
		return false
	}
	if f.Seniority != job.SeniorityUnspecified && listing.Seniority != f.Seniority {
		return false
	}

	if len(f.Tags) > 0 {
		have := make(map[string]struct{}, len(listing.Tags))
		for _, tag := range listing.Tags {
			have[textutil.Fold(tag)] = struct{}{}
		}
		for _, want := range f.Tags {
			if _, ok := have[textutil.Fold(want)]; !ok {
				return false
			}
		}
	}

	if f.Search != "" && !textutil.ContainsFold(listing.SearchText(), f.Search) {
		return false
	}

	return true
}

// Less orders two rows under the given sort. Score sorting breaks ties on
// collection recency; recency sorting breaks ties on score. Both fall back to
// the listing identity so the order is total.
func Less(a, b MatchRow, sort Sort) bool {
	switch sort {
	case SortByRecency:
		if !a.Listing.CollectedAt.Equal(b.Listing.CollectedAt) {
			return a.Listing.CollectedAt.After(b.Listing.CollectedAt)
		}
		if a.Match.Score != b.Match.Score {
			return a.Match.Score > b.Match.Score
		}
	default:
		if a.Match.Score != b.Match.Score {
			return a.Match.Score > b.Match.Score
		}
		if !a.Listing.CollectedAt.Equal(b.Listing.CollectedAt) {
			return a.Listing.CollectedAt.After(b.Listing.CollectedAt)
		}
	}
	return a.Listing.ID.String() < b.Listing.ID.String()
}
