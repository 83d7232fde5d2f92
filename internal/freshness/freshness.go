// Package freshness decides whether stored listings are current enough to
// serve a query or whether a scrape cycle must run first.
package freshness

import (
	"time"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/textutil"
)

const (
	DefaultWindow      = 12 * time.Hour
	DefaultMinListings = 25
)

// Decision reports the staleness verdict. When Targeted is set, only Keywords
// need collecting; otherwise a stale verdict calls for a full cycle.
type Decision struct {
	Stale    bool
	Targeted bool
	Keywords []string
	Reason   string
}

// Evaluator applies the freshness policy. It is pure: all inputs, including
// the clock, are passed to Evaluate.
type Evaluator struct {
	window      time.Duration
	minListings int
}

func NewEvaluator(window time.Duration, minListings int) *Evaluator {
	if window <= 0 {
		window = DefaultWindow
	}
	if minListings <= 0 {
		minListings = DefaultMinListings
	}
	return &Evaluator{window: window, minListings: minListings}
}

// Evaluate inspects the last finalized session and the current inventory.
// A session that failed outright does not count as a refresh; partial
// sessions do, since they saved usable data.
func (e *Evaluator) Evaluate(last *job.Session, listingCount int, knownTags, keywords []string, now time.Time) Decision {
	if last == nil || last.Status == job.SessionFailed {
		return Decision{Stale: true, Reason: "no successful collection on record"}
	}

	if age := now.Sub(last.FinishedAt); age > e.window {
		return Decision{Stale: true, Reason: "last collection is older than the freshness window"}
	}

	if listingCount < e.minListings {
		return Decision{Stale: true, Reason: "stored listing count is below the minimum"}
	}

	if novel := novelKeywords(keywords, last.Keywords, knownTags); len(novel) > 0 {
		return Decision{Stale: true, Targeted: true, Keywords: novel, Reason: "query contains keywords not covered by stored data"}
	}

	return Decision{Reason: "stored data is fresh"}
}

// novelKeywords returns the query keywords covered neither by the last
// session's search terms nor by any stored listing tag.
func novelKeywords(keywords, sessionKeywords, knownTags []string) []string {
	covered := make(map[string]struct{}, len(sessionKeywords)+len(knownTags))
	for _, kw := range sessionKeywords {
		covered[textutil.Fold(kw)] = struct{}{}
	}
	for _, tag := range knownTags {
		covered[textutil.Fold(tag)] = struct{}{}
	}

	var novel []string
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		folded := textutil.Fold(kw)
		if folded == "" {
			continue
		}
		if _, ok := covered[folded]; ok {
			continue
		}
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		novel = append(novel, kw)
	}
	return novel
}
