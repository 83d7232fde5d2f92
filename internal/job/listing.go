// Package job defines the domain model shared across the engine: listings,
// keyword profiles, matches and scraping sessions.
package job

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zauns/job-search/internal/textutil"
)

// WorkMode classifies where the work happens. Sources report this as free
// text; anything unrecognized normalizes to WorkModeUnspecified.
type WorkMode string

const (
	WorkModeUnspecified WorkMode = "unspecified"
	WorkModeOnsite      WorkMode = "onsite"
	WorkModeRemote      WorkMode = "remote"
	WorkModeHybrid      WorkMode = "hybrid"
)

// ParseWorkMode coerces a source-provided value into a WorkMode.
func ParseWorkMode(s string) WorkMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onsite", "on-site", "on_site", "office", "fullday":
		return WorkModeOnsite
	case "remote", "fully remote", "home", "telecommute":
		return WorkModeRemote
	case "hybrid", "flexible":
		return WorkModeHybrid
	default:
		return WorkModeUnspecified
	}
}

// Seniority classifies the experience level a listing asks for.
type Seniority string

const (
	SeniorityUnspecified Seniority = "unspecified"
	SeniorityIntern      Seniority = "intern"
	SeniorityJunior      Seniority = "junior"
	SeniorityMid         Seniority = "mid"
	SenioritySenior      Seniority = "senior"
)

// ParseSeniority coerces a source-provided value into a Seniority.
func ParseSeniority(s string) Seniority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intern", "internship", "trainee", "noexperience":
		return SeniorityIntern
	case "junior", "entry", "entry level", "entry_level", "between1and3":
		return SeniorityJunior
	case "mid", "middle", "mid level", "mid_level", "between3and6":
		return SeniorityMid
	case "senior", "senior level", "senior_level", "lead", "morethan6":
		return SenioritySenior
	default:
		return SeniorityUnspecified
	}
}

// Identity is the stable identity of a listing: the source name plus either
// the source-native id or a content hash when the source has none.
// An Identity never changes across updates of the same listing.
type Identity struct {
	Source string `json:"source"`
	Ref    string `json:"ref"`
}

func (id Identity) String() string {
	return id.Source + ":" + id.Ref
}

func (id Identity) IsZero() bool {
	return id.Source == "" && id.Ref == ""
}

// HashedSource is the identity namespace for listings whose source exposes no
// native id. It is source-independent so the same posting reported by two
// adapters resolves to one identity.
const HashedSource = "content"

// HashedIdentity derives a deterministic identity for records whose source
// does not expose a native id.
func HashedIdentity(title, company, sourceURL string) Identity {
	sum := sha256.Sum256([]byte(title + "\x00" + company + "\x00" + sourceURL))
	return Identity{Source: HashedSource, Ref: fmt.Sprintf("%x", sum[:12])}
}

// Listing is a normalized job posting. Listings are owned by the store;
// adapters only produce transient raw records that are discarded after
// normalization.
type Listing struct {
	ID Identity `json:"id"`
	// Source is the adapter that most recently reported the listing. For
	// hash-identified listings it differs from ID.Source.
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	WorkMode    WorkMode  `json:"work_mode"`
	Seniority   Seniority `json:"seniority"`
	Tags        []string  `json:"tags,omitempty"`
	Description string    `json:"description,omitempty"`
	SourceURL   string    `json:"source_url"`
	ApplyURL    string    `json:"apply_url,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

// ContentEquals reports whether the fields that feed scoring are identical.
// Re-collection with equal content must not re-trigger scoring.
func (l *Listing) ContentEquals(other *Listing) bool {
	if l.Title != other.Title || l.Description != other.Description {
		return false
	}
	if len(l.Tags) != len(other.Tags) {
		return false
	}
	for i := range l.Tags {
		if l.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

// SearchText returns the folded haystack used for substring search.
func (l *Listing) SearchText() string {
	return textutil.Fold(l.Title + " " + l.Company + " " + l.Description + " " + strings.Join(l.Tags, " "))
}

// NormalizeTags lowercases, trims and deduplicates a tag set, returning it in
// a stable sorted order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Profile is the ordered keyword set derived from a candidate document.
// It is owned by the caller and never mutated by the engine.
type Profile struct {
	ID    string   `json:"id"`
	Terms []string `json:"terms"`
}
