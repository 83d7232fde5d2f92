// Package oracle defines the contract for the external language-understanding
// service used for keyword extraction and semantic term similarity.
//
// The oracle has no local fallback: when it is unreachable, operations fail
// with an error wrapping ErrUnavailable and callers decide whether to retry,
// skip or abort.
package oracle

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the oracle could not be reached or did not answer.
var ErrUnavailable = errors.New("oracle unavailable")

// Extraction is the result of extracting keywords from a document.
type Extraction struct {
	Terms    []string
	Language string // ISO 639-1 code as detected by the oracle
}

// Oracle is the language-understanding service consumed as a black box.
type Oracle interface {
	// ExtractKeywords pulls the most relevant skill/competency terms out of
	// free text and detects its language.
	ExtractKeywords(ctx context.Context, text string) (*Extraction, error)

	// ScoreSimilarity rates how close two terms are in meaning, in [0,1].
	// It handles synonyms and cross-language equivalents; the result may
	// jitter between calls for the same pair.
	ScoreSimilarity(ctx context.Context, termA, termB string) (float64, error)
}
