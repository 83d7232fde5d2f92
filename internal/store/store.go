// Package store defines the persistence contract for listings, matches and
// collection sessions, plus the query shapes shared by its implementations.
package store

import (
	"context"
	"errors"

	"github.com/zauns/job-search/internal/job"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Sort selects the ordering of ranked match results.
type Sort string

const (
	SortByScore   Sort = "score"
	SortByRecency Sort = "recency"
)

// Filters narrows ranked match results. Zero values mean "no constraint".
// Tags requires every named tag to be present; Search matches the folded
// listing text accent- and case-insensitively.
type Filters struct {
	WorkMode  job.WorkMode
	Seniority job.Seniority
	Tags      []string
	Search    string
}

// Page is a 1-indexed page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// MatchRow joins a match with its listing for presentation.
type MatchRow struct {
	Match   job.Match
	Listing job.Listing
}

// Store is the persistence boundary of the engine. Implementations must be
// safe for concurrent use.
type Store interface {
	// UpsertListing inserts or updates a listing by identity. It reports
	// whether the stored content (title, description, tags) changed, which
	// tells the caller existing matches are invalid.
	UpsertListing(ctx context.Context, listing job.Listing) (changed bool, err error)

	GetListing(ctx context.Context, id job.Identity) (job.Listing, error)
	CountListings(ctx context.Context) (int, error)

	// KnownTags returns the distinct normalized tags across all listings.
	KnownTags(ctx context.Context) ([]string, error)

	// ListingsWithoutMatch returns listings the given profile has no match
	// record for yet.
	ListingsWithoutMatch(ctx context.Context, profileID string) ([]job.Listing, error)

	// DeleteMatchesForListing removes all match records for a listing, in
	// any profile.
	DeleteMatchesForListing(ctx context.Context, id job.Identity) error

	UpsertMatch(ctx context.Context, match job.Match) error

	// RankedMatches returns one page of a profile's matches after filtering
	// and sorting, with the total row count before pagination.
	RankedMatches(ctx context.Context, profileID string, filters Filters, sort Sort, page Page) ([]MatchRow, int, error)

	CreateSession(ctx context.Context, session job.Session) error
	FinalizeSession(ctx context.Context, session job.Session) error

	// LastFinalizedSession returns the most recently finished session, or
	// ErrNotFound when none has completed yet.
	LastFinalizedSession(ctx context.Context) (job.Session, error)

	// Purge deletes all listings, matches and sessions.
	Purge(ctx context.Context) error
}
