package normalize

import (
	"testing"
	"time"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/source"
)

func TestRecordsDropsIncomplete(t *testing.T) {
	now := time.Now()
	records := []source.RawRecord{
		{Source: "a", SourceID: "1", Title: "Go Developer", Company: "Acme", SourceURL: "https://a/1"},
		{Source: "a", SourceID: "2", Title: "", Company: "Acme", SourceURL: "https://a/2"},
		{Source: "a", SourceID: "3", Title: "Engineer", Company: "", SourceURL: "https://a/3"},
		{Source: "a", SourceID: "4", Title: "Engineer", Company: "Acme", SourceURL: ""},
	}

	res := Records(records, now)
	if len(res.Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(res.Listings))
	}
	if res.Dropped != 3 {
		t.Fatalf("expected 3 dropped records, got %d", res.Dropped)
	}
}

func TestRecordsCollapsesDuplicateIdentity(t *testing.T) {
	now := time.Now()
	records := []source.RawRecord{
		{Source: "a", SourceID: "1", Title: "Old Title", Company: "Acme", SourceURL: "https://a/1"},
		{Source: "a", SourceID: "2", Title: "Other", Company: "Acme", SourceURL: "https://a/2"},
		{Source: "a", SourceID: "1", Title: "New Title", Company: "Acme", SourceURL: "https://a/1"},
	}

	res := Records(records, now)
	if len(res.Listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(res.Listings))
	}
	if res.Collapsed != 1 {
		t.Fatalf("expected 1 collapsed record, got %d", res.Collapsed)
	}
	// The later record wins but keeps its first-appearance position.
	if res.Listings[0].Title != "New Title" {
		t.Fatalf("expected the most recent fields at the original position, got %q", res.Listings[0].Title)
	}
}

func TestRecordsHashIdentityWithoutSourceID(t *testing.T) {
	now := time.Now()
	records := []source.RawRecord{
		{Source: "a", Title: "Go Developer", Company: "Acme", SourceURL: "https://a/jobs/1"},
		{Source: "a", Title: "Go Developer", Company: "Acme", SourceURL: "https://a/jobs/1"},
		{Source: "a", Title: "Go Developer", Company: "Acme", SourceURL: "https://a/jobs/2"},
	}

	res := Records(records, now)
	if len(res.Listings) != 2 {
		t.Fatalf("expected identical records to collapse by content hash, got %d listings", len(res.Listings))
	}
	for _, l := range res.Listings {
		if l.ID.Ref == "" {
			t.Fatalf("expected a derived identity ref for %q", l.SourceURL)
		}
	}
}

func TestRecordsCollapsesHashIdentityAcrossSources(t *testing.T) {
	now := time.Now()
	records := []source.RawRecord{
		{Source: "a", Title: "Go Developer", Company: "Acme", SourceURL: "https://acme.example/jobs/1"},
		{Source: "b", Title: "Go Developer", Company: "Acme", SourceURL: "https://acme.example/jobs/1"},
	}

	res := Records(records, now)
	if len(res.Listings) != 1 {
		t.Fatalf("expected the same posting from two sources to collapse, got %d listings", len(res.Listings))
	}
	if res.Collapsed != 1 {
		t.Fatalf("expected 1 collapsed record, got %d", res.Collapsed)
	}

	l := res.Listings[0]
	if l.ID.Source != job.HashedSource {
		t.Fatalf("expected a source-independent identity, got %+v", l.ID)
	}
	if l.Source != "b" {
		t.Fatalf("expected the most recent reporter on the listing, got %q", l.Source)
	}
}

func TestRecordsCoercesEnumsAndTags(t *testing.T) {
	now := time.Now()
	records := []source.RawRecord{
		{
			Source: "a", SourceID: "1",
			Title: " Go Developer ", Company: "Acme", SourceURL: "https://a/1",
			WorkMode:  "fullDay",
			Seniority: "between3and6",
			Tags:      []string{"Go", "  go ", "PostgreSQL", ""},
		},
	}

	res := Records(records, now)
	if len(res.Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(res.Listings))
	}

	l := res.Listings[0]
	if l.Title != "Go Developer" {
		t.Fatalf("expected trimmed title, got %q", l.Title)
	}
	if l.WorkMode != job.WorkModeOnsite {
		t.Fatalf("expected onsite work mode, got %q", l.WorkMode)
	}
	if l.Seniority != job.SeniorityMid {
		t.Fatalf("expected mid seniority, got %q", l.Seniority)
	}
	if len(l.Tags) != 2 || l.Tags[0] != "go" || l.Tags[1] != "postgresql" {
		t.Fatalf("expected normalized deduplicated tags, got %v", l.Tags)
	}
	if !l.CollectedAt.Equal(now) {
		t.Fatalf("expected the batch timestamp on the listing")
	}
}
