package job

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the overall outcome of a scraping session. A status other
// than SessionRunning is terminal and never revised after finalization.
type SessionStatus string

const (
	SessionRunning  SessionStatus = "running"
	SessionComplete SessionStatus = "complete"
	SessionPartial  SessionStatus = "partial"
	SessionFailed   SessionStatus = "failed"
)

// SourceOutcome records how a single adapter fared within one session.
type SourceOutcome struct {
	Source string `json:"source"`
	Found  int    `json:"found"`
	Saved  int    `json:"saved"`
	Error  string `json:"error,omitempty"`
}

// Session is one scraping orchestration run. Sessions are append-only;
// the freshness evaluator reads the most recent finalized one to decide the
// next trigger.
type Session struct {
	ID         uuid.UUID       `json:"id"`
	Keywords   []string        `json:"keywords,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitzero"`
	Sources    []SourceOutcome `json:"sources,omitempty"`
	Status     SessionStatus   `json:"status"`
}

// NewSession creates a running session for the given trigger keywords.
func NewSession(keywords []string, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Keywords:  keywords,
		StartedAt: now,
		Status:    SessionRunning,
	}
}

// Finalize stamps the end time and computes the terminal status:
// complete when every source succeeded, partial when at least one succeeded
// and at least one failed, failed when all sources failed or the run yielded
// zero usable listings. Finalize is a no-op on an already finalized session.
func (s *Session) Finalize(savedListings int, now time.Time) {
	if s.Status != SessionRunning {
		return
	}
	s.FinishedAt = now

	var succeeded, failed int
	for _, o := range s.Sources {
		if o.Error != "" {
			failed++
		} else {
			succeeded++
		}
	}

	switch {
	case succeeded == 0:
		s.Status = SessionFailed
	case savedListings == 0:
		s.Status = SessionFailed
	case failed > 0:
		s.Status = SessionPartial
	default:
		s.Status = SessionComplete
	}
}

// Finalized reports whether the session reached a terminal status.
func (s *Session) Finalized() bool {
	return s.Status != SessionRunning
}
