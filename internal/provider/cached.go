package provider

import (
	"context"
	"sync"

	"github.com/kyuwon/tradewind/internal/cache"
	"github.com/kyuwon/tradewind/internal/core"
	"github.com/kyuwon/tradewind/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Cached wraps a HistoryProvider with a TTL memory cache, an optional
// persistent tier, a token-bucket rate limiter on every live fetch, and a
// bounded worker pool for bulk fetches. It is the explicitly constructed
// replacement for ambient module-level caches: its lifetime belongs to the
// process or to a test fixture.
type Cached struct {
	upstream HistoryProvider
	memory   *cache.Memory
	disk     *cache.Disk // nil when the persistent tier is disabled
	limiter  *rate.Limiter
	workers  int
	metrics  *metrics.Registry
	logger   *zap.Logger

	// single-flight per key so concurrent callers don't duplicate fetches
	mu       sync.Mutex
	inflight map[cache.Key]*fetchCall
}

type fetchCall struct {
	done chan struct{}
	bars []core.PriceBar
	err  error
}

// CachedOptions configures the wrapper.
type CachedOptions struct {
	Memory  *cache.Memory
	Disk    *cache.Disk
	Limiter *rate.Limiter
	Workers int
	Metrics *metrics.Registry
	Logger  *zap.Logger
}

// NewCached builds the caching layer around upstream.
func NewCached(upstream HistoryProvider, opts CachedOptions) *Cached {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 6
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(5), 5)
	}
	return &Cached{
		upstream: upstream,
		memory:   opts.Memory,
		disk:     opts.Disk,
		limiter:  opts.Limiter,
		workers:  opts.Workers,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		inflight: make(map[cache.Key]*fetchCall),
	}
}

// History serves from the memory tier, then the disk tier, then a
// rate-limited live fetch.
func (c *Cached) History(ctx context.Context, ticker, period, interval string) ([]core.PriceBar, error) {
	key := cache.Key{Ticker: ticker, Period: period, Interval: interval}

	if c.memory != nil {
		if bars, ok := c.memory.Get(key); ok {
			c.countCache(true)
			return bars, nil
		}
	}
	if c.disk != nil {
		if bars, ok := c.disk.Get(key); ok {
			c.countCache(true)
			if c.memory != nil {
				c.memory.Set(key, bars)
			}
			return bars, nil
		}
	}
	c.countCache(false)

	c.mu.Lock()
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.bars, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &fetchCall{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	call.bars, call.err = c.fetch(ctx, key)
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()

	return call.bars, call.err
}

func (c *Cached) fetch(ctx context.Context, key cache.Key) ([]core.PriceBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	bars, err := c.upstream.History(ctx, key.Ticker, key.Period, key.Interval)
	if err != nil {
		c.countFetch(false)
		return nil, err
	}
	c.countFetch(true)
	if c.memory != nil {
		c.memory.Set(key, bars)
	}
	if c.disk != nil {
		c.disk.Set(key, bars)
	}
	return bars, nil
}

// Histories fans fetches out over a bounded worker pool. A failed ticker
// maps to an empty series; cancellation is honored between tickers.
func (c *Cached) Histories(ctx context.Context, tickers []string, period, interval string) (map[string][]core.PriceBar, error) {
	type result struct {
		ticker string
		bars   []core.PriceBar
	}

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				bars, err := c.History(ctx, t, period, interval)
				if err != nil {
					c.logger.Warn("history fetch failed",
						zap.String("ticker", t),
						zap.Error(err),
					)
					bars = nil
				}
				results <- result{ticker: t, bars: bars}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, t := range tickers {
			select {
			case jobs <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string][]core.PriceBar, len(tickers))
	for r := range results {
		out[r.ticker] = r.bars
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Cached) countCache(hit bool) {
	if c.metrics != nil {
		c.metrics.ObserveCache(hit)
	}
}

func (c *Cached) countFetch(ok bool) {
	if c.metrics != nil {
		c.metrics.ObserveFetch(ok)
	}
}
