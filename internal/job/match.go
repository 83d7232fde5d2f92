package job

import "time"

// Match is the scored relationship between one profile and one listing.
// Matching and missing terms come from local set operations and are
// deterministic; only the score may carry oracle jitter.
type Match struct {
	ProfileID     string    `json:"profile_id"`
	ListingID     Identity  `json:"listing_id"`
	Score         float64   `json:"score"`
	MatchingTerms []string  `json:"matching_terms,omitempty"`
	MissingTerms  []string  `json:"missing_terms,omitempty"`
	ComputedAt    time.Time `json:"computed_at"`
}
