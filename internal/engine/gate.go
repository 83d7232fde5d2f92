package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const fullScope = "full"

// cycleGate serializes collection cycles. A full cycle takes the write lock
// and runs alone; targeted cycles for disjoint keyword sets share the read
// lock and run in parallel. Identical scopes requested concurrently collapse
// into one run through the singleflight group.
type cycleGate struct {
	mu     sync.RWMutex
	flight singleflight.Group
}

// run executes fn under the gate for the given scope, deduplicating
// concurrent calls with the same scope. All callers of a deduplicated scope
// receive the same result. A shared result can carry the initiating caller's
// cancellation; a follower whose own context is still live falls back to a
// fresh run instead of inheriting it.
func (g *cycleGate) run(ctx context.Context, scope string, fn func() (any, error)) (any, bool, error) {
	do := func() (any, error) {
		if scope == fullScope {
			g.mu.Lock()
			defer g.mu.Unlock()
		} else {
			g.mu.RLock()
			defer g.mu.RUnlock()
		}
		return fn()
	}

	v, err, shared := g.flight.Do(scope, do)
	if shared && ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		v, err, shared = g.flight.Do(scope, do)
	}
	return v, shared, err
}

// scopeKey derives a stable gate key from trigger keywords. An empty keyword
// set means a full cycle.
func scopeKey(keywords []string) string {
	if len(keywords) == 0 {
		return fullScope
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	if len(lowered) == 0 {
		return fullScope
	}
	sort.Strings(lowered)
	return "kw:" + strings.Join(lowered, ",")
}
