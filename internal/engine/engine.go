// Package engine coordinates the whole pipeline: freshness evaluation,
// concurrent collection, normalization, scoring and ranked retrieval.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/freshness"
	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/normalize"
	"github.com/zauns/job-search/internal/oracle"
	"github.com/zauns/job-search/internal/query"
	"github.com/zauns/job-search/internal/scoring"
	"github.com/zauns/job-search/internal/scrape"
	"github.com/zauns/job-search/internal/store"
)

// CycleReport summarizes one collection cycle.
type CycleReport struct {
	Session   job.Session
	Saved     int
	Dropped   int
	Collapsed int
	Deduped   bool
}

// StatusReport is the freshness snapshot returned by FreshnessStatus.
type StatusReport struct {
	Decision     freshness.Decision
	ListingCount int
	LastSession  *job.Session
}

// Engine wires the pipeline stages together and owns the cycle gate that
// keeps at most one collection in flight per scope.
type Engine struct {
	store        store.Store
	orchestrator *scrape.Orchestrator
	scorer       *scoring.Engine
	evaluator    *freshness.Evaluator
	oracle       oracle.Oracle
	queries      *query.Service
	logger       *zap.Logger
	now          func() time.Time

	gate cycleGate

	profileMu sync.RWMutex
	profiles  map[string]job.Profile
}

func New(st store.Store, orch *scrape.Orchestrator, scorer *scoring.Engine, eval *freshness.Evaluator, orc oracle.Oracle, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:        st,
		orchestrator: orch,
		scorer:       scorer,
		evaluator:    eval,
		oracle:       orc,
		queries:      query.NewService(st),
		logger:       logger,
		now:          time.Now,
		profiles:     make(map[string]job.Profile),
	}
}

// RegisterProfile stores a keyword profile for later matching. Registering an
// existing id replaces the profile; its matches are recomputed lazily.
func (e *Engine) RegisterProfile(profile job.Profile) error {
	if profile.ID == "" {
		return errors.New("profile id is required")
	}
	if len(profile.Terms) == 0 {
		return fmt.Errorf("profile %q has no terms", profile.ID)
	}

	e.profileMu.Lock()
	defer e.profileMu.Unlock()
	e.profiles[profile.ID] = profile
	return nil
}

// Profile returns a registered profile by id.
func (e *Engine) Profile(id string) (job.Profile, bool) {
	e.profileMu.RLock()
	defer e.profileMu.RUnlock()
	p, ok := e.profiles[id]
	return p, ok
}

// ExtractProfile builds a profile from a free-text candidate document through
// the oracle and registers it.
func (e *Engine) ExtractProfile(ctx context.Context, id, document string) (job.Profile, error) {
	extraction, err := e.oracle.ExtractKeywords(ctx, document)
	if err != nil {
		return job.Profile{}, fmt.Errorf("extract profile %q: %w", id, err)
	}

	profile := job.Profile{ID: id, Terms: extraction.Terms}
	if err := e.RegisterProfile(profile); err != nil {
		return job.Profile{}, err
	}

	e.logger.Info("profile registered",
		zap.String("profile", id),
		zap.Int("terms", len(profile.Terms)),
		zap.String("language", extraction.Language))
	return profile, nil
}

// EvaluateFreshness applies the freshness policy for the given query
// keywords against the stored state.
func (e *Engine) EvaluateFreshness(ctx context.Context, keywords []string) (freshness.Decision, error) {
	report, err := e.FreshnessStatus(ctx, keywords)
	if err != nil {
		return freshness.Decision{}, err
	}
	return report.Decision, nil
}

// FreshnessStatus returns the freshness decision together with the state it
// was derived from.
func (e *Engine) FreshnessStatus(ctx context.Context, keywords []string) (StatusReport, error) {
	var last *job.Session
	session, err := e.store.LastFinalizedSession(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return StatusReport{}, fmt.Errorf("load last session: %w", err)
	default:
		last = &session
	}

	count, err := e.store.CountListings(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("count listings: %w", err)
	}

	tags, err := e.store.KnownTags(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("load known tags: %w", err)
	}

	decision := e.evaluator.Evaluate(last, count, tags, keywords, e.now())
	return StatusReport{Decision: decision, ListingCount: count, LastSession: last}, nil
}

// RunScrapeCycle runs one collection cycle for the given keywords. An empty
// keyword set means a full cycle, which runs alone; targeted cycles for
// different keyword sets may overlap. Concurrent requests for the same scope
// share a single run, reported through CycleReport.Deduped.
func (e *Engine) RunScrapeCycle(ctx context.Context, keywords []string) (CycleReport, error) {
	v, shared, err := e.gate.run(ctx, scopeKey(keywords), func() (any, error) {
		return e.cycle(ctx, keywords)
	})
	if err != nil {
		return CycleReport{}, err
	}

	report := v.(CycleReport)
	report.Deduped = shared
	return report, nil
}

// AutoScrapeIfNeeded evaluates freshness and runs a cycle only when the
// stored data is stale. It returns nil and no report when data is fresh.
func (e *Engine) AutoScrapeIfNeeded(ctx context.Context, keywords []string) (*CycleReport, error) {
	decision, err := e.EvaluateFreshness(ctx, keywords)
	if err != nil {
		return nil, err
	}
	if !decision.Stale {
		e.logger.Debug("skipping collection", zap.String("reason", decision.Reason))
		return nil, nil
	}

	var scope []string
	if decision.Targeted {
		scope = decision.Keywords
	}

	e.logger.Info("stored data is stale, collecting",
		zap.String("reason", decision.Reason),
		zap.Strings("keywords", scope))

	report, err := e.RunScrapeCycle(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// cycle is the body of one collection run: session bookkeeping, fan-out,
// normalization and persistence. Adapter failures surface as source outcomes
// on the session; only store and bookkeeping failures abort the cycle.
func (e *Engine) cycle(ctx context.Context, keywords []string) (CycleReport, error) {
	session := job.NewSession(keywords, e.now())
	if err := e.store.CreateSession(ctx, *session); err != nil {
		return CycleReport{}, fmt.Errorf("create session: %w", err)
	}

	batch := e.orchestrator.Collect(ctx, keywords)
	session.Sources = batch.Outcomes

	result := normalize.Records(batch.Records, e.now())

	// The caller deadline only governs collection. Whatever the adapters
	// managed to return is persisted and the session finalized on a
	// detached context, so an expired deadline degrades to a partial
	// session instead of losing completed results.
	persistCtx := context.WithoutCancel(ctx)

	saved, err := e.persist(persistCtx, session, result.Listings)
	if err != nil {
		// Finalize anyway so the failed cycle is on record.
		session.Finalize(saved, e.now())
		if ferr := e.store.FinalizeSession(persistCtx, *session); ferr != nil {
			e.logger.Error("finalize session after persist failure", zap.Error(ferr))
		}
		return CycleReport{}, err
	}

	session.Finalize(saved, e.now())
	if err := e.store.FinalizeSession(persistCtx, *session); err != nil {
		return CycleReport{}, fmt.Errorf("finalize session: %w", err)
	}

	e.logger.Info("collection cycle finished",
		zap.String("session", session.ID.String()),
		zap.String("status", string(session.Status)),
		zap.Int("saved", saved),
		zap.Int("dropped", result.Dropped),
		zap.Int("collapsed", result.Collapsed))

	return CycleReport{
		Session:   *session,
		Saved:     saved,
		Dropped:   result.Dropped,
		Collapsed: result.Collapsed,
	}, nil
}

// persist upserts normalized listings, invalidating matches for listings
// whose content changed and crediting each save to its source outcome. A
// failing record is retried once before aborting the cycle.
func (e *Engine) persist(ctx context.Context, session *job.Session, listings []job.Listing) (int, error) {
	savedBySource := make(map[string]int, len(session.Sources))

	var saved int
	for _, listing := range listings {
		changed, err := e.store.UpsertListing(ctx, listing)
		if err != nil {
			changed, err = e.store.UpsertListing(ctx, listing)
		}
		if err != nil {
			return saved, fmt.Errorf("save listing %s: %w", listing.ID, err)
		}

		if changed {
			if err := e.store.DeleteMatchesForListing(ctx, listing.ID); err != nil {
				return saved, fmt.Errorf("invalidate matches for %s: %w", listing.ID, err)
			}
		}

		saved++
		savedBySource[listing.Source]++
	}

	for i := range session.Sources {
		session.Sources[i].Saved = savedBySource[session.Sources[i].Source]
	}
	return saved, nil
}

// GetRankedMatches returns one page of ranked matches for a registered
// profile, scoring any listings the profile has not been matched against yet.
// When unscored listings remain and the oracle is unavailable, the error
// propagates; there is no silent fallback ranking.
func (e *Engine) GetRankedMatches(ctx context.Context, profileID string, filters store.Filters, sort store.Sort, page store.Page) (query.ResultPage, error) {
	profile, ok := e.Profile(profileID)
	if !ok {
		return query.ResultPage{}, fmt.Errorf("profile %q: %w", profileID, store.ErrNotFound)
	}

	if err := e.scorePending(ctx, profile); err != nil {
		return query.ResultPage{}, err
	}

	return e.queries.RankedMatches(ctx, profileID, filters, sort, page)
}

// GetListing fetches one listing by identity.
func (e *Engine) GetListing(ctx context.Context, id job.Identity) (job.Listing, error) {
	return e.queries.GetListing(ctx, id)
}

// scorePending scores every listing the profile has no match record for.
func (e *Engine) scorePending(ctx context.Context, profile job.Profile) error {
	pending, err := e.store.ListingsWithoutMatch(ctx, profile.ID)
	if err != nil {
		return fmt.Errorf("load unscored listings: %w", err)
	}

	for _, listing := range pending {
		res, err := e.scorer.Score(ctx, profile, listing)
		if err != nil {
			return fmt.Errorf("score %s for %q: %w", listing.ID, profile.ID, err)
		}
		match := scoring.Match(profile.ID, listing, res, e.now())
		if err := e.store.UpsertMatch(ctx, match); err != nil {
			return fmt.Errorf("save match %s: %w", listing.ID, err)
		}
	}

	if len(pending) > 0 {
		e.logger.Debug("scored pending listings",
			zap.String("profile", profile.ID),
			zap.Int("count", len(pending)))
	}
	return nil
}

// Purge wipes all stored listings, matches and sessions.
func (e *Engine) Purge(ctx context.Context) error {
	return e.store.Purge(ctx)
}
