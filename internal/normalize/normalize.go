// Package normalize turns heterogeneous raw source records into canonical
// listings and collapses duplicates within a batch.
package normalize

import (
	"strings"
	"time"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/source"
)

// Result is the outcome of normalizing one batch. Dropped counts records
// rejected for missing required fields; Collapsed counts records merged into
// an earlier record with the same identity. Neither aborts the batch.
type Result struct {
	Listings  []job.Listing
	Dropped   int
	Collapsed int
}

// Records canonicalizes a batch of raw records. Within the batch, records
// resolving to the same identity collapse into one listing keeping the most
// recently seen fields. Output order follows first appearance of each
// identity, which keeps the pipeline deterministic for a given input order.
func Records(records []source.RawRecord, now time.Time) Result {
	var res Result
	index := make(map[job.Identity]int)

	for _, rec := range records {
		listing, ok := one(rec, now)
		if !ok {
			res.Dropped++
			continue
		}

		if at, seen := index[listing.ID]; seen {
			res.Listings[at] = listing
			res.Collapsed++
			continue
		}

		index[listing.ID] = len(res.Listings)
		res.Listings = append(res.Listings, listing)
	}

	return res
}

// one maps a single raw record onto the canonical listing shape. It returns
// false when a required field (title, company, source URL) is missing.
func one(rec source.RawRecord, now time.Time) (job.Listing, bool) {
	title := strings.TrimSpace(rec.Title)
	company := strings.TrimSpace(rec.Company)
	sourceURL := strings.TrimSpace(rec.SourceURL)
	if title == "" || company == "" || sourceURL == "" {
		return job.Listing{}, false
	}

	id := job.Identity{Source: rec.Source, Ref: strings.TrimSpace(rec.SourceID)}
	if id.Ref == "" {
		id = job.HashedIdentity(title, company, sourceURL)
	}

	return job.Listing{
		ID:          id,
		Source:      rec.Source,
		Title:       title,
		Company:     company,
		Location:    strings.TrimSpace(rec.Location),
		WorkMode:    job.ParseWorkMode(rec.WorkMode),
		Seniority:   job.ParseSeniority(rec.Seniority),
		Tags:        job.NormalizeTags(rec.Tags),
		Description: strings.TrimSpace(rec.Description),
		SourceURL:   sourceURL,
		ApplyURL:    strings.TrimSpace(rec.ApplyURL),
		CollectedAt: now,
	}, true
}
