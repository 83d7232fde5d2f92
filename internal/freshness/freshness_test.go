package freshness

import (
	"testing"
	"time"

	"github.com/zauns/job-search/internal/job"
)

func finalizedSession(keywords []string, finished time.Time, status job.SessionStatus) *job.Session {
	return &job.Session{
		Keywords:   keywords,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
		Status:     status,
	}
}

func TestEvaluateColdStart(t *testing.T) {
	e := NewEvaluator(12*time.Hour, 25)

	decision := e.Evaluate(nil, 0, nil, []string{"golang"}, time.Now())
	if !decision.Stale {
		t.Fatalf("expected stale verdict with no session on record")
	}
	if decision.Targeted {
		t.Fatalf("cold start must trigger a full cycle, not a targeted one")
	}
}

func TestEvaluateFailedSessionDoesNotCount(t *testing.T) {
	now := time.Now()
	e := NewEvaluator(12*time.Hour, 25)

	last := finalizedSession([]string{"golang"}, now.Add(-time.Hour), job.SessionFailed)
	decision := e.Evaluate(last, 100, []string{"golang"}, []string{"golang"}, now)
	if !decision.Stale {
		t.Fatalf("a failed session must not count as a refresh")
	}
}

func TestEvaluateWindowExceeded(t *testing.T) {
	now := time.Now()
	e := NewEvaluator(12*time.Hour, 25)

	last := finalizedSession([]string{"golang"}, now.Add(-13*time.Hour), job.SessionComplete)
	decision := e.Evaluate(last, 100, []string{"golang"}, []string{"golang"}, now)
	if !decision.Stale {
		t.Fatalf("expected stale verdict past the freshness window")
	}
	if decision.Targeted {
		t.Fatalf("an expired window calls for a full cycle")
	}
}

func TestEvaluateTooFewListings(t *testing.T) {
	now := time.Now()
	e := NewEvaluator(12*time.Hour, 25)

	last := finalizedSession([]string{"golang"}, now.Add(-time.Hour), job.SessionComplete)
	decision := e.Evaluate(last, 10, []string{"golang"}, []string{"golang"}, now)
	if !decision.Stale {
		t.Fatalf("expected stale verdict below the minimum listing count")
	}
}

func TestEvaluateNovelKeywordsAreTargeted(t *testing.T) {
	now := time.Now()
	e := NewEvaluator(12*time.Hour, 25)

	last := finalizedSession([]string{"golang"}, now.Add(-time.Hour), job.SessionComplete)
	decision := e.Evaluate(last, 100, []string{"golang", "docker"}, []string{"golang", "rust"}, now)
	if !decision.Stale || !decision.Targeted {
		t.Fatalf("expected a targeted stale verdict, got %+v", decision)
	}
	if len(decision.Keywords) != 1 || decision.Keywords[0] != "rust" {
		t.Fatalf("expected only the novel keyword, got %v", decision.Keywords)
	}
}

func TestEvaluateKeywordCoverageIsAccentInsensitive(t *testing.T) {
	now := time.Now()
	e := NewEvaluator(12*time.Hour, 25)

	last := finalizedSession([]string{"développeur"}, now.Add(-time.Hour), job.SessionComplete)
	decision := e.Evaluate(last, 100, nil, []string{"Developpeur"}, now)
	if decision.Stale {
		t.Fatalf("accent and case variants of a covered keyword must not trigger a cycle: %+v", decision)
	}
}

func TestEvaluateFresh(t *testing.T) {
	now := time.Now()
	e := NewEvaluator(12*time.Hour, 25)

	last := finalizedSession([]string{"golang"}, now.Add(-time.Hour), job.SessionPartial)
	decision := e.Evaluate(last, 100, []string{"golang"}, []string{"golang"}, now)
	if decision.Stale {
		t.Fatalf("expected fresh verdict, got %+v", decision)
	}
}
