package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/store"
	"github.com/zauns/job-search/internal/textutil"
)

// Store implements store.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS listings (
	source TEXT NOT NULL,
	ref TEXT NOT NULL,
	collected_from TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	work_mode TEXT NOT NULL DEFAULT 'unspecified',
	seniority TEXT NOT NULL DEFAULT 'unspecified',
	tags TEXT[] NOT NULL DEFAULT '{}',
	description TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL,
	apply_url TEXT NOT NULL DEFAULT '',
	search_text TEXT NOT NULL DEFAULT '',
	collected_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (source, ref)
);
CREATE INDEX IF NOT EXISTS idx_listings_collected ON listings(collected_at DESC);
CREATE INDEX IF NOT EXISTS idx_listings_tags ON listings USING GIN(tags);

CREATE TABLE IF NOT EXISTS matches (
	profile_id TEXT NOT NULL,
	source TEXT NOT NULL,
	ref TEXT NOT NULL,
	score DOUBLE PRECISION NOT NULL CHECK (score >= 0 AND score <= 1),
	matching_terms TEXT[] NOT NULL DEFAULT '{}',
	missing_terms TEXT[] NOT NULL DEFAULT '{}',
	computed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (profile_id, source, ref),
	FOREIGN KEY (source, ref) REFERENCES listings(source, ref) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_matches_profile_score ON matches(profile_id, score DESC);

CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	keywords TEXT[] NOT NULL DEFAULT '{}',
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	sources JSONB NOT NULL DEFAULT '[]',
	status TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_finished ON sessions(finished_at DESC) WHERE finished_at IS NOT NULL;
`)
	return err
}

func (s *Store) UpsertListing(ctx context.Context, l job.Listing) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var prev job.Listing
	err = tx.QueryRow(ctx, `
SELECT title, description, tags FROM listings WHERE source = $1 AND ref = $2 FOR UPDATE
`, l.ID.Source, l.ID.Ref).Scan(&prev.Title, &prev.Description, &prev.Tags)

	exists := true
	if errors.Is(err, pgx.ErrNoRows) {
		exists = false
	} else if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `
INSERT INTO listings (source, ref, collected_from, title, company, location, work_mode, seniority, tags, description, source_url, apply_url, search_text, collected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (source, ref) DO UPDATE SET
	collected_from = EXCLUDED.collected_from,
	title = EXCLUDED.title,
	company = EXCLUDED.company,
	location = EXCLUDED.location,
	work_mode = EXCLUDED.work_mode,
	seniority = EXCLUDED.seniority,
	tags = EXCLUDED.tags,
	description = EXCLUDED.description,
	source_url = EXCLUDED.source_url,
	apply_url = EXCLUDED.apply_url,
	search_text = EXCLUDED.search_text,
	collected_at = EXCLUDED.collected_at
`, l.ID.Source, l.ID.Ref, l.Source, l.Title, l.Company, l.Location, string(l.WorkMode), string(l.Seniority),
		l.Tags, l.Description, l.SourceURL, l.ApplyURL, l.SearchText(), l.CollectedAt)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	return !prev.ContentEquals(&l), nil
}

const listingColumns = `source, ref, collected_from, title, company, location, work_mode, seniority, tags, description, source_url, apply_url, collected_at`

func scanListing(row pgx.Row) (job.Listing, error) {
	var l job.Listing
	var workMode, seniority string
	err := row.Scan(&l.ID.Source, &l.ID.Ref, &l.Source, &l.Title, &l.Company, &l.Location, &workMode,
		&seniority, &l.Tags, &l.Description, &l.SourceURL, &l.ApplyURL, &l.CollectedAt)
	if err != nil {
		return job.Listing{}, err
	}
	l.WorkMode = job.WorkMode(workMode)
	l.Seniority = job.Seniority(seniority)
	l.CollectedAt = l.CollectedAt.UTC()
	return l, nil
}

func (s *Store) GetListing(ctx context.Context, id job.Identity) (job.Listing, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+listingColumns+` FROM listings WHERE source = $1 AND ref = $2
`, id.Source, id.Ref)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return job.Listing{}, store.ErrNotFound
	}
	return l, err
}

func (s *Store) CountListings(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

func (s *Store) KnownTags(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT unnest(tags) FROM listings ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *Store) ListingsWithoutMatch(ctx context.Context, profileID string) ([]job.Listing, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+listingColumns+` FROM listings l
WHERE NOT EXISTS (
	SELECT 1 FROM matches m
	WHERE m.profile_id = $1 AND m.source = l.source AND m.ref = l.ref
)
ORDER BY l.source, l.ref
`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []job.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMatchesForListing(ctx context.Context, id job.Identity) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE source = $1 AND ref = $2`, id.Source, id.Ref)
	return err
}

func (s *Store) UpsertMatch(ctx context.Context, m job.Match) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO matches (profile_id, source, ref, score, matching_terms, missing_terms, computed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (profile_id, source, ref) DO UPDATE SET
	score = EXCLUDED.score,
	matching_terms = EXCLUDED.matching_terms,
	missing_terms = EXCLUDED.missing_terms,
	computed_at = EXCLUDED.computed_at
`, m.ProfileID, m.ListingID.Source, m.ListingID.Ref, m.Score, m.MatchingTerms, m.MissingTerms, m.ComputedAt)
	return err
}

func (s *Store) RankedMatches(ctx context.Context, profileID string, filters store.Filters, sort store.Sort, page store.Page) ([]store.MatchRow, int, error) {
	where := []string{"m.profile_id = $1"}
	args := []any{profileID}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.WorkMode != job.WorkModeUnspecified {
		where = append(where, "l.work_mode = "+arg(string(filters.WorkMode)))
	}
	if filters.Seniority != job.SeniorityUnspecified {
		where = append(where, "l.seniority = "+arg(string(filters.Seniority)))
	}
	if len(filters.Tags) > 0 {
		where = append(where, "l.tags @> "+arg(job.NormalizeTags(filters.Tags)))
	}
	if filters.Search != "" {
		where = append(where, "l.search_text LIKE "+arg("%"+textutil.Fold(filters.Search)+"%"))
	}

	order := "m.score DESC, l.collected_at DESC, l.source, l.ref"
	if sort == store.SortByRecency {
		order = "l.collected_at DESC, m.score DESC, l.source, l.ref"
	}

	query := fmt.Sprintf(`
SELECT m.profile_id, m.score, m.matching_terms, m.missing_terms, m.computed_at,
	l.source, l.ref, l.collected_from, l.title, l.company, l.location, l.work_mode, l.seniority,
	l.tags, l.description, l.source_url, l.apply_url, l.collected_at,
	COUNT(*) OVER () AS total
FROM matches m
JOIN listings l ON l.source = m.source AND l.ref = m.ref
WHERE %s
ORDER BY %s
LIMIT %s OFFSET %s
`, strings.Join(where, " AND "), order, arg(page.Size), arg(page.Offset()))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []store.MatchRow
	var total int
	for rows.Next() {
		var r store.MatchRow
		var workMode, seniority string
		err := rows.Scan(&r.Match.ProfileID, &r.Match.Score, &r.Match.MatchingTerms, &r.Match.MissingTerms, &r.Match.ComputedAt,
			&r.Listing.ID.Source, &r.Listing.ID.Ref, &r.Listing.Source, &r.Listing.Title, &r.Listing.Company, &r.Listing.Location,
			&workMode, &seniority, &r.Listing.Tags, &r.Listing.Description, &r.Listing.SourceURL,
			&r.Listing.ApplyURL, &r.Listing.CollectedAt, &total)
		if err != nil {
			return nil, 0, err
		}
		r.Listing.WorkMode = job.WorkMode(workMode)
		r.Listing.Seniority = job.Seniority(seniority)
		r.Match.ListingID = r.Listing.ID
		r.Match.ComputedAt = r.Match.ComputedAt.UTC()
		r.Listing.CollectedAt = r.Listing.CollectedAt.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// The window count is absent when the page is beyond the result set.
	if total == 0 && len(out) == 0 {
		err = s.pool.QueryRow(ctx, fmt.Sprintf(`
SELECT COUNT(*) FROM matches m
JOIN listings l ON l.source = m.source AND l.ref = m.ref
WHERE %s
`, strings.Join(where, " AND ")), args[:len(args)-2]...).Scan(&total)
		if err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (s *Store) CreateSession(ctx context.Context, session job.Session) error {
	return s.writeSession(ctx, session, `
INSERT INTO sessions (id, keywords, started_at, finished_at, sources, status)
VALUES ($1, $2, $3, $4, $5, $6)
`)
}

func (s *Store) FinalizeSession(ctx context.Context, session job.Session) error {
	cmd, err := s.pool.Exec(ctx, `
UPDATE sessions SET finished_at = $2, sources = $3, status = $4 WHERE id = $1
`, session.ID, nullableTime(session.FinishedAt), session.Sources, string(session.Status))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) writeSession(ctx context.Context, session job.Session, query string) error {
	_, err := s.pool.Exec(ctx, query, session.ID, session.Keywords, session.StartedAt,
		nullableTime(session.FinishedAt), session.Sources, string(session.Status))
	return err
}

func (s *Store) LastFinalizedSession(ctx context.Context) (job.Session, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, keywords, started_at, finished_at, sources, status
FROM sessions
WHERE finished_at IS NOT NULL
ORDER BY finished_at DESC
LIMIT 1
`)

	var session job.Session
	var finished *time.Time
	var status string
	if err := row.Scan(&session.ID, &session.Keywords, &session.StartedAt, &finished, &session.Sources, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Session{}, store.ErrNotFound
		}
		return job.Session{}, err
	}
	if finished != nil {
		session.FinishedAt = finished.UTC()
	}
	session.StartedAt = session.StartedAt.UTC()
	session.Status = job.SessionStatus(status)
	return session, nil
}

func (s *Store) Purge(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE matches, listings, sessions`)
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
