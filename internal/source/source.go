// Package source defines the adapter contract for external job boards and
// the concrete adapters. Each adapter is an isolated failure domain: it
// classifies its own errors and never leaks state between invocations.
package source

import (
	"context"
	"errors"
)

// Sentinel errors classifying adapter failures. Transient failures are
// retried with backoff inside the retry wrapper; structural failures are
// surfaced immediately since retrying cannot help.
var (
	// ErrRateLimited indicates the source throttled us (transient).
	ErrRateLimited = errors.New("source rate limited")
	// ErrUnreachable indicates a network-level failure (transient).
	ErrUnreachable = errors.New("source unreachable")
	// ErrBadResponse indicates the response shape changed (structural).
	ErrBadResponse = errors.New("unexpected source response")
	// ErrBlocked indicates the source refused the client (structural).
	ErrBlocked = errors.New("blocked by source")
)

// Transient reports whether the error is worth retrying.
func Transient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnreachable)
}

// RawRecord is the source-shaped view of a job posting, produced by an
// adapter and consumed by the normalization pipeline. Records are transient
// and discarded after normalization.
type RawRecord struct {
	Source      string
	SourceID    string
	Title       string
	Company     string
	Location    string
	WorkMode    string
	Seniority   string
	Tags        []string
	Description string
	SourceURL   string
	ApplyURL    string
}

// Adapter collects raw records for a keyword set from one external source.
// Collect is read-only with respect to the source and idempotent; the
// returned error wraps one of the sentinel errors above.
type Adapter interface {
	Name() string
	Collect(ctx context.Context, keywords []string) ([]RawRecord, error)
}
