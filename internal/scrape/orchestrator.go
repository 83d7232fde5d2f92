// Package scrape fans a collection request out to every registered source
// adapter and merges whatever they return. A failing adapter never takes the
// batch down with it.
package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zauns/job-search/internal/job"
	"github.com/zauns/job-search/internal/source"
)

const defaultMaxInFlight = 4

// Batch is the merged result of one collection run. Records preserves adapter
// registration order, then each adapter's own record order. Outcomes holds one
// entry per adapter regardless of success.
type Batch struct {
	Records  []source.RawRecord
	Outcomes []job.SourceOutcome
}

// Succeeded counts adapters that returned without error.
func (b Batch) Succeeded() int {
	var n int
	for _, o := range b.Outcomes {
		if o.Error == "" {
			n++
		}
	}
	return n
}

// Orchestrator runs adapters concurrently under a bound.
type Orchestrator struct {
	adapters    []source.Adapter
	maxInFlight int
	timeout     time.Duration
	logger      *zap.Logger
}

// New creates an Orchestrator. maxInFlight values at or below zero select the
// default; timeout zero means the caller's context governs the deadline.
func New(adapters []source.Adapter, maxInFlight int, timeout time.Duration, logger *zap.Logger) *Orchestrator {
	if maxInFlight <= 0 {
		maxInFlight = defaultMaxInFlight
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{adapters: adapters, maxInFlight: maxInFlight, timeout: timeout, logger: logger}
}

// Collect queries every adapter for the given keywords. Adapter failures are
// recorded in the batch outcomes instead of being returned; the only error
// case would be having no adapters at all, which yields an empty batch.
func (o *Orchestrator) Collect(ctx context.Context, keywords []string) Batch {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	perAdapter := make([][]source.RawRecord, len(o.adapters))
	outcomes := make([]job.SourceOutcome, len(o.adapters))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxInFlight)

	for i, adapter := range o.adapters {
		g.Go(func() error {
			started := time.Now()
			records, err := adapter.Collect(ctx, keywords)

			outcome := job.SourceOutcome{Source: adapter.Name(), Found: len(records)}
			if err != nil {
				outcome.Error = err.Error()
				o.logger.Warn("source collection failed",
					zap.String("source", adapter.Name()),
					zap.Duration("elapsed", time.Since(started)),
					zap.Error(err))
			} else {
				o.logger.Info("source collection finished",
					zap.String("source", adapter.Name()),
					zap.Int("records", len(records)),
					zap.Duration("elapsed", time.Since(started)))
			}

			perAdapter[i] = records
			outcomes[i] = outcome
			return nil
		})
	}

	// Goroutines never return errors, so Wait only synchronizes.
	_ = g.Wait()

	var batch Batch
	batch.Outcomes = outcomes
	for _, records := range perAdapter {
		batch.Records = append(batch.Records, records...)
	}
	return batch
}
