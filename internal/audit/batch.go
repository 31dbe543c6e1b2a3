package audit

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/contentaudit/internal/schema"
)

// Item is one entry of a batch audit.
type Item struct {
	// ID is the caller's identifier, copied to the result's CorrelationID.
	ID       string
	Text     string
	Platform schema.Platform
}

// BatchResult pairs an item id with its outcome. Exactly one of Result and
// Err is set.
type BatchResult struct {
	ID     string
	Result *schema.AuditResult
	Err    error
}

// AuditBatch audits items on at most workers goroutines (GOMAXPROCS when
// workers <= 0). Results are returned in item order. Invalid items get a
// per-item error and do not stop the batch. When ctx is cancelled no further
// items are started; those items carry ctx.Err() and the same error is
// returned.
func (a *Auditor) AuditBatch(ctx context.Context, items []Item, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]BatchResult, len(items))

	var g errgroup.Group
	g.SetLimit(workers)

	dispatched := 0
	for i, it := range items {
		if ctx.Err() != nil {
			break
		}
		dispatched = i + 1
		g.Go(func() error {
			r, err := a.audit(ctx, it.Text, it.Platform, it.ID)
			out[i] = BatchResult{ID: it.ID, Result: r, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if dispatched < len(items) {
		err := ctx.Err()
		for i := dispatched; i < len(items); i++ {
			out[i] = BatchResult{ID: items[i].ID, Err: err}
		}
		a.log.Warnw("batch audit cancelled", "dispatched", dispatched, "total", len(items), "error", err)
		return out, err
	}
	return out, nil
}
