// Package scoring computes compatibility between a search profile and a
// listing. Term coverage is decided by literal matching alone, so the
// matching and missing sets are reproducible; the semantic oracle only
// contributes partial credit to the numeric score for terms not literally
// present.
package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/oracle"
	"github.com/zauns/job-search/internal/textutil"
)

const defaultSemanticFloor = 0.5

// Result is one scored profile/listing pair.
type Result struct {
	Score         float64
	MatchingTerms []string
	MissingTerms  []string
}

// Engine scores listings against profiles.
type Engine struct {
	oracle        oracle.Oracle
	semanticFloor float64
	logger        *zap.Logger
}

// New creates an Engine. semanticFloor is the minimum oracle similarity that
// earns a missing term partial credit; values at or below zero select the
// default.
func New(orc oracle.Oracle, semanticFloor float64, logger *zap.Logger) *Engine {
	if semanticFloor <= 0 {
		semanticFloor = defaultSemanticFloor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{oracle: orc, semanticFloor: semanticFloor, logger: logger}
}

// Score evaluates one listing against a profile. An oracle failure aborts the
// evaluation; there is no degraded local approximation of semantic credit.
func (e *Engine) Score(ctx context.Context, profile job.Profile, listing job.Listing) (Result, error) {
	if len(profile.Terms) == 0 {
		return Result{}, fmt.Errorf("profile %q has no terms", profile.ID)
	}

	haystack := textutil.Normalize(listing.SearchText())

	var res Result
	var credit float64
	for _, term := range profile.Terms {
		if textutil.ContainsPhrase(haystack, textutil.Normalize(term)) {
			res.MatchingTerms = append(res.MatchingTerms, term)
			credit++
			continue
		}
		res.MissingTerms = append(res.MissingTerms, term)

		sim, err := e.semanticCredit(ctx, term, listing.Tags)
		if err != nil {
			return Result{}, err
		}
		credit += sim
	}

	res.Score = credit / float64(len(profile.Terms))
	if res.Score > 1 {
		res.Score = 1
	}
	if res.Score < 0 {
		res.Score = 0
	}
	return res, nil
}

// semanticCredit returns the best oracle similarity between term and the
// listing's tags, or zero when it falls under the floor. Listings without
// tags earn no semantic credit and cost no oracle calls.
func (e *Engine) semanticCredit(ctx context.Context, term string, tags []string) (float64, error) {
	var best float64
	for _, tag := range tags {
		sim, err := e.oracle.ScoreSimilarity(ctx, term, tag)
		if err != nil {
			return 0, fmt.Errorf("similarity %q vs %q: %w", term, tag, err)
		}
		if sim > best {
			best = sim
		}
	}
	if best < e.semanticFloor {
		return 0, nil
	}
	return best, nil
}

// Match assembles a persisted match record from a scoring result.
func Match(profileID string, listing job.Listing, res Result, now time.Time) job.Match {
	return job.Match{
		ProfileID:     profileID,
		ListingID:     listing.ID,
		Score:         res.Score,
		MatchingTerms: res.MatchingTerms,
		MissingTerms:  res.MissingTerms,
		ComputedAt:    now,
	}
}
