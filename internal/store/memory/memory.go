// Package memory holds the full store in process memory. It backs tests and
// ad-hoc runs that should not touch Postgres.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/store"
)

// Store is an in-memory store.Store implementation.
type Store struct {
	mu       sync.RWMutex
	listings map[job.Identity]job.Listing
	matches  map[string]map[job.Identity]job.Match
	sessions map[uuid.UUID]job.Session
}

func New() *Store {
	return &Store{
		listings: make(map[job.Identity]job.Listing),
		matches:  make(map[string]map[job.Identity]job.Match),
		sessions: make(map[uuid.UUID]job.Session),
	}
}

func (s *Store) UpsertListing(_ context.Context, listing job.Listing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.listings[listing.ID]
	s.listings[listing.ID] = cloneListing(listing)
	if !exists {
		return true, nil
	}
	return !prev.ContentEquals(&listing), nil
}

func (s *Store) GetListing(_ context.Context, id job.Identity) (job.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return job.Listing{}, store.ErrNotFound
	}
	return cloneListing(listing), nil
}

func (s *Store) CountListings(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings), nil
}

func (s *Store) KnownTags(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var tags []string
	for _, listing := range s.listings {
		for _, tag := range listing.Tags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags, nil
}

func (s *Store) ListingsWithoutMatch(_ context.Context, profileID string) ([]job.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matches[profileID]
	var out []job.Listing
	for id, listing := range s.listings {
		if _, ok := matched[id]; ok {
			continue
		}
		out = append(out, cloneListing(listing))
	}
	slices.SortFunc(out, func(a, b job.Listing) int {
		if a.ID.String() < b.ID.String() {
			return -1
		}
		return 1
	})
	return out, nil
}

func (s *Store) DeleteMatchesForListing(_ context.Context, id job.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, byListing := range s.matches {
		delete(byListing, id)
	}
	return nil
}

func (s *Store) UpsertMatch(_ context.Context, match job.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byListing, ok := s.matches[match.ProfileID]
	if !ok {
		byListing = make(map[job.Identity]job.Match)
		s.matches[match.ProfileID] = byListing
	}
	byListing[match.ListingID] = cloneMatch(match)
	return nil
}

func (s *Store) RankedMatches(_ context.Context, profileID string, filters store.Filters, sort store.Sort, page store.Page) ([]store.MatchRow, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []store.MatchRow
	for id, match := range s.matches[profileID] {
		listing, ok := s.listings[id]
		if !ok {
			continue
		}
		if !filters.Accepts(listing) {
			continue
		}
		rows = append(rows, store.MatchRow{Match: cloneMatch(match), Listing: cloneListing(listing)})
	}

	slices.SortFunc(rows, func(a, b store.MatchRow) int {
		if store.Less(a, b, sort) {
			return -1
		}
		return 1
	})

	total := len(rows)
	start := page.Offset()
	if start >= total {
		return nil, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return rows[start:end], total, nil
}

func (s *Store) CreateSession(_ context.Context, session job.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) FinalizeSession(_ context.Context, session job.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return store.ErrNotFound
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

func (s *Store) LastFinalizedSession(_ context.Context) (job.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last job.Session
	var found bool
	for _, session := range s.sessions {
		if !session.Finalized() {
			continue
		}
		if !found || session.FinishedAt.After(last.FinishedAt) {
			last = session
			found = true
		}
	}
	if !found {
		return job.Session{}, store.ErrNotFound
	}
	return cloneSession(last), nil
}

func (s *Store) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings = make(map[job.Identity]job.Listing)
	s.matches = make(map[string]map[job.Identity]job.Match)
	s.sessions = make(map[uuid.UUID]job.Session)
	return nil
}

func cloneListing(l job.Listing) job.Listing {
	l.Tags = slices.Clone(l.Tags)
	return l
}

func cloneMatch(m job.Match) job.Match {
	m.MatchingTerms = slices.Clone(m.MatchingTerms)
	m.MissingTerms = slices.Clone(m.MissingTerms)
	return m
}

func cloneSession(s job.Session) job.Session {
	s.Keywords = slices.Clone(s.Keywords)
	s.Sources = slices.Clone(s.Sources)
	return s
}
