// Package crawler fans website extraction out across candidate URLs with
// bounded concurrency.
package crawler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Crawler runs website extraction over many candidates in parallel.
// Each candidate is isolated: its own deadline, its own failure. Nothing
// a candidate does can cancel or delay the others.
type Crawler struct {
	extractor *extract.WebsiteExtractor
	workers   int
	timeout   time.Duration
	limiter   *rate.Limiter
}

// New creates a Crawler. workers bounds concurrent candidates, timeout is
// the per-candidate budget, and rps throttles request starts across all
// workers (politeness, not correctness).
func New(extractor *extract.WebsiteExtractor, workers int, timeout time.Duration, rps float64) *Crawler {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Crawler{
		extractor: extractor,
		workers:   workers,
		timeout:   timeout,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Crawl extracts fragments from the candidate URLs. A candidate that
// errors or exceeds its timeout is dropped, not retried, and does not
// fail the crawl. Result order does not follow input order.
func (c *Crawler) Crawl(ctx context.Context, candidates []string) []model.ProfileFragment {
	var (
		mu        sync.Mutex
		fragments []model.ProfileFragment
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, candidate := range candidates {
		g.Go(func() error {
			if err := c.limiter.Wait(gCtx); err != nil {
				return nil //nolint:nilerr // run context gone, nothing to record
			}

			cctx, cancel := context.WithTimeout(gCtx, c.timeout)
			defer cancel()

			start := time.Now()
			frag, ok := c.extractor.Extract(cctx, candidate)
			if !ok {
				zap.L().Debug("crawler: candidate dropped",
					zap.String("url", candidate),
					zap.Duration("elapsed", time.Since(start)),
				)
				return nil
			}

			mu.Lock()
			fragments = append(fragments, frag)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Info("crawler: fan-out complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("fragments", len(fragments)),
	)
	return fragments
}
