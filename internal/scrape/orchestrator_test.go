package scrape

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zauns/job-search/internal/source"
)

type stubAdapter struct {
	name    string
	records []source.RawRecord
	err     error
	delay   time.Duration

	onStart func()
	onDone  func()
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Collect(ctx context.Context, _ []string) ([]source.RawRecord, error) {
	if s.onStart != nil {
		s.onStart()
	}
	if s.onDone != nil {
		defer s.onDone()
	}
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func record(src, id string) source.RawRecord {
	return source.RawRecord{Source: src, SourceID: id, Title: "t", Company: "c", SourceURL: "u"}
}

func TestCollectMergesInRegistrationOrder(t *testing.T) {
	o := New([]source.Adapter{
		&stubAdapter{name: "a", records: []source.RawRecord{record("a", "1"), record("a", "2")}},
		&stubAdapter{name: "b", records: []source.RawRecord{record("b", "1")}},
	}, 2, 0, zap.NewNop())

	batch := o.Collect(context.Background(), []string{"golang"})
	if len(batch.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(batch.Records))
	}
	if batch.Records[0].Source != "a" || batch.Records[2].Source != "b" {
		t.Fatalf("expected adapter registration order in merged records")
	}
	if batch.Succeeded() != 2 {
		t.Fatalf("expected 2 successful outcomes, got %d", batch.Succeeded())
	}
}

func TestCollectToleratesPartialFailure(t *testing.T) {
	o := New([]source.Adapter{
		&stubAdapter{name: "a", records: []source.RawRecord{record("a", "1")}},
		&stubAdapter{name: "b", err: errors.New("boom")},
		&stubAdapter{name: "c", records: []source.RawRecord{record("c", "1")}},
	}, 3, 0, zap.NewNop())

	batch := o.Collect(context.Background(), nil)
	if len(batch.Records) != 2 {
		t.Fatalf("expected the surviving adapters' records, got %d", len(batch.Records))
	}
	if len(batch.Outcomes) != 3 {
		t.Fatalf("expected one outcome per adapter, got %d", len(batch.Outcomes))
	}
	if batch.Outcomes[1].Error == "" {
		t.Fatalf("expected the failure recorded on its outcome")
	}
	if batch.Succeeded() != 2 {
		t.Fatalf("expected 2 successes, got %d", batch.Succeeded())
	}
}

func TestCollectAllFailed(t *testing.T) {
	o := New([]source.Adapter{
		&stubAdapter{name: "a", err: errors.New("down")},
		&stubAdapter{name: "b", err: errors.New("down")},
	}, 2, 0, zap.NewNop())

	batch := o.Collect(context.Background(), nil)
	if len(batch.Records) != 0 {
		t.Fatalf("expected no records, got %d", len(batch.Records))
	}
	if batch.Succeeded() != 0 {
		t.Fatalf("expected zero successes")
	}
}

func TestCollectRespectsConcurrencyBound(t *testing.T) {
	var current, peak atomic.Int32
	var mu sync.Mutex

	track := func() {
		n := current.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
	}
	done := func() { current.Add(-1) }

	adapters := make([]source.Adapter, 0, 5)
	for range 5 {
		adapters = append(adapters, &stubAdapter{
			name:    "s",
			delay:   20 * time.Millisecond,
			onStart: track,
			onDone:  done,
		})
	}

	o := New(adapters, 2, 0, zap.NewNop())
	o.Collect(context.Background(), nil)

	if got := peak.Load(); got > 2 {
		t.Fatalf("expected at most 2 adapters in flight, saw %d", got)
	}
}

func TestCollectDeadlineKeepsCompletedResults(t *testing.T) {
	o := New([]source.Adapter{
		&stubAdapter{name: "fast", records: []source.RawRecord{record("fast", "1")}},
		&stubAdapter{name: "slow", delay: time.Second},
	}, 2, 50*time.Millisecond, zap.NewNop())

	batch := o.Collect(context.Background(), nil)
	if len(batch.Records) != 1 {
		t.Fatalf("expected the fast adapter's records despite the deadline, got %d", len(batch.Records))
	}
	if batch.Outcomes[1].Error == "" {
		t.Fatalf("expected the slow adapter to report a deadline error")
	}
}
