package source

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
)

type retryAdapter struct {
	inner       Adapter
	maxAttempts int
	backoffBase time.Duration
	logger      *zap.Logger
}

// WithRetry wraps an adapter so that transient failures are retried with
// exponential backoff up to maxAttempts. Structural failures pass through
// immediately. A maxAttempts of zero or less selects the default budget.
func WithRetry(inner Adapter, maxAttempts int, backoffBase time.Duration, logger *zap.Logger) Adapter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryAdapter{
		inner:       inner,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		logger:      logger.With(zap.String("source", inner.Name())),
	}
}

func (r *retryAdapter) Name() string { return r.inner.Name() }

func (r *retryAdapter) Collect(ctx context.Context, keywords []string) ([]RawRecord, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		records, err := r.inner.Collect(ctx, keywords)
		if err == nil {
			return records, nil
		}
		if !Transient(err) {
			return nil, err
		}

		lastErr = err
		if attempt == r.maxAttempts {
			break
		}

		delay := r.backoffBase << (attempt - 1)
		r.logger.Debug("transient source failure, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := waitFor(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// waitFor sleeps for d but returns early when the context is done.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
