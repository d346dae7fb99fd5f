// Package app wires configuration into the provider, evaluation, allocation
// and backtest layers and exposes the operations the CLI runs.
package app

import (
	"context"
	"fmt"

	"github.com/kyuwon/tradewind/internal/allocator"
	"github.com/kyuwon/tradewind/internal/backtest"
	"github.com/kyuwon/tradewind/internal/cache"
	"github.com/kyuwon/tradewind/internal/config"
	"github.com/kyuwon/tradewind/internal/core"
	"github.com/kyuwon/tradewind/internal/evaluator"
	"github.com/kyuwon/tradewind/internal/llm/factory"
	"github.com/kyuwon/tradewind/internal/metrics"
	"github.com/kyuwon/tradewind/internal/provider"
	"github.com/kyuwon/tradewind/internal/provider/yahoo"
	"github.com/kyuwon/tradewind/internal/recommend"
	"github.com/kyuwon/tradewind/internal/sector"
	"github.com/kyuwon/tradewind/internal/storage/archive"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App is the application orchestrator.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry

	history    *provider.Cached
	quotes     provider.QuoteProvider
	volatility provider.VolatilityProvider
	classifier provider.SectorClassifier

	evaluator  *evaluator.Evaluator
	aggregator *sector.Aggregator
	allocator  *allocator.Allocator
	simulator  *backtest.Simulator
	reporter   *archive.Reporter

	disk *cache.Disk
}

// New builds the full application from configuration. The LLM override and
// the archive reporter are optional; everything else is always wired.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	yc := yahoo.New()

	var disk *cache.Disk
	if cfg.Fetch.DiskCache.Enabled {
		var err error
		disk, err = cache.NewDisk(cache.DiskOptions{
			Path:       cfg.Fetch.DiskCache.Path,
			TTL:        cfg.Fetch.CacheTTL,
			MaxRetries: cfg.Fetch.DiskCache.MaxRetries,
			RetryDelay: cfg.Fetch.DiskCache.RetryDelay,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening disk cache: %w", err)
		}
	}

	history := provider.NewCached(yc, provider.CachedOptions{
		Memory:  cache.NewMemory(cfg.Fetch.CacheTTL),
		Disk:    disk,
		Limiter: rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSec), cfg.Fetch.Burst),
		Workers: cfg.Fetch.Workers,
		Metrics: reg,
		Logger:  logger,
	})

	ev := evaluator.New(history, yc, evaluator.Options{
		Thresholds: evaluator.Thresholds{
			VIXHalt:          cfg.Evaluation.VIXThreshold,
			PEGMax:           cfg.Evaluation.PEGThreshold,
			RevenueGrowthMin: cfg.Evaluation.RevenueGrowthMin,
			RSIMax:           cfg.Evaluation.RSIMax,
			GapMinPct:        cfg.Evaluation.GapThresholdPct,
			MAWindow:         cfg.Evaluation.MAWindow,
			RSIWindow:        cfg.Evaluation.RSIWindow,
		},
		Workers: cfg.Fetch.Workers,
		Metrics: reg,
		Logger:  logger,
	})

	agg := sector.New(history, yc, cfg.Evaluation.SectorMAWindow, logger)

	allocOpts := []allocator.Option{allocator.WithLogger(logger)}
	if cfg.LLM.Provider != "" {
		client, err := factory.New(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("creating LLM client: %w", err)
		}
		rec := recommend.New(client, reg, logger)
		allocOpts = append(allocOpts, allocator.WithRecommender(rec))
		logger.Info("LLM allocation override enabled", zap.String("provider", client.Name()))
	}
	alloc := allocator.New(allocator.Weights{
		GradeS:       cfg.Allocation.SPct,
		GradeA:       cfg.Allocation.APct,
		Cap:          cfg.Allocation.CapPct,
		OverrideCap:  cfg.Allocation.OverrideCap,
		GapStrongPct: 10,
		GapMildPct:   cfg.Evaluation.GapThresholdPct,
	}, allocOpts...)

	sim := backtest.New(history, backtest.Config{
		StartCash:          cfg.Backtest.StartCash,
		AllocationPerTrade: cfg.Backtest.AllocationPerTrade,
		StopLossPct:        cfg.Backtest.StopLossPct,
		MAWindow:           cfg.Evaluation.MAWindow,
		Period:             cfg.Backtest.Period,
	}, logger, reg)

	var reporter *archive.Reporter
	if cfg.Archive.Enabled {
		storage, err := newArchiveStorage(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("creating archive storage: %w", err)
		}
		reporter = archive.NewReporter(storage, logger)
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		metrics:    reg,
		history:    history,
		quotes:     yc,
		volatility: yc,
		classifier: yc,
		evaluator:  ev,
		aggregator: agg,
		allocator:  alloc,
		simulator:  sim,
		reporter:   reporter,
		disk:       disk,
	}, nil
}

func newArchiveStorage(cfg config.ArchiveConfig) (archive.Storage, error) {
	switch cfg.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

// Metrics exposes the prometheus registry for the metrics endpoint.
func (a *App) Metrics() *metrics.Registry {
	return a.metrics
}

// EvaluationReport is the output of one full evaluation run.
type EvaluationReport struct {
	Results     []core.EvaluationResult
	Allocations map[string]float64
	VIX         *float64
	Sectors     *sector.Stats
	ArchivePath string
}

// EvaluateAll runs the full pipeline: sector aggregation, volatility fetch,
// batch grading, allocation sizing, and optional archival. Per-ticker
// failures come back as graded errors, never as a run failure.
func (a *App) EvaluateAll(ctx context.Context, tickers []string, totalCash float64) (*EvaluationReport, error) {
	if len(tickers) == 0 {
		tickers = a.cfg.Tickers
	}
	if len(tickers) == 0 {
		return nil, core.ErrNoData
	}

	stats, err := a.aggregator.Compute(ctx, tickers)
	if err != nil {
		return nil, err
	}

	var vix *float64
	if v, err := a.volatility.VolatilityIndex(ctx); err != nil {
		a.logger.Warn("volatility index unavailable", zap.Error(err))
	} else {
		vix = core.Float64(v)
	}

	sectorMA := make(map[string]*float64, len(tickers))
	for _, t := range tickers {
		sectorMA[t] = stats.MAFor(t)
	}

	byTicker := a.evaluator.EvaluateBatch(ctx, tickers, evaluator.BatchInput{
		SectorMA: sectorMA,
		VIX:      vix,
	})

	// keep input order in the report
	results := make([]core.EvaluationResult, 0, len(tickers))
	for _, t := range tickers {
		if r, ok := byTicker[t]; ok {
			results = append(results, r)
		}
	}

	allocations := a.allocator.AllocateAll(ctx, results, totalCash, vix)

	report := &EvaluationReport{
		Results:     results,
		Allocations: allocations,
		VIX:         vix,
		Sectors:     stats,
	}
	if a.reporter != nil {
		path, err := a.reporter.SaveEvaluations(ctx, results, vix)
		if err != nil {
			a.logger.Warn("archiving evaluation report failed", zap.Error(err))
		} else {
			report.ArchivePath = path
		}
	}
	return report, nil
}

// BacktestReport is the output of one backtest run.
type BacktestReport struct {
	Summary     *backtest.Summary
	ArchivePath string
}

// RunBacktest simulates the tickers. When useLLM is set, allocations per
// ticker come from the evaluation-plus-recommendation pipeline instead of the
// flat per-trade amount.
func (a *App) RunBacktest(ctx context.Context, tickers []string, useLLM bool) (*BacktestReport, error) {
	if len(tickers) == 0 {
		tickers = a.cfg.Tickers
	}
	if len(tickers) == 0 {
		return nil, core.ErrNoData
	}

	var allocations map[string]float64
	if useLLM {
		rep, err := a.EvaluateAll(ctx, tickers, a.cfg.Backtest.StartCash)
		if err != nil {
			return nil, err
		}
		allocations = rep.Allocations
	}

	summary, err := a.simulator.Run(ctx, tickers, allocations)
	if err != nil {
		return nil, err
	}

	report := &BacktestReport{Summary: summary}
	if a.reporter != nil {
		path, err := a.reporter.SaveBacktest(ctx, *summary)
		if err != nil {
			a.logger.Warn("archiving backtest summary failed", zap.Error(err))
		} else {
			report.ArchivePath = path
		}
	}
	return report, nil
}

// SectorStats computes the sector aggregation on its own, for inspection.
func (a *App) SectorStats(ctx context.Context, tickers []string) (*sector.Stats, error) {
	if len(tickers) == 0 {
		tickers = a.cfg.Tickers
	}
	if len(tickers) == 0 {
		return nil, core.ErrNoData
	}
	return a.aggregator.Compute(ctx, tickers)
}

// Close releases held resources.
func (a *App) Close() error {
	if a.disk != nil {
		return a.disk.Close()
	}
	return nil
}
